package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleProfile() CVProfile {
	return CVProfile{
		Name:       "Ada Lovelace",
		Email:      "ada@example.com",
		Experience: ProfileText{Text: "Analyst at Babbage & Co\n\n  Translator  \n"},
		Education:  ProfileText{Items: []string{" Home schooled ", ""}},
		Skills:     ProfileText{Text: "math, , poetry ,engines"},
	}
}

func TestBuildCVTemplate(t *testing.T) {
	doc := BuildCVTemplate(sampleProfile(), "")

	assert.Equal(t, "Ada Lovelace", doc.PersonalInfo.Name)
	assert.Equal(t, DefaultCVSummary, doc.ProfessionalSummary)
	assert.Equal(t, []string{"Analyst at Babbage & Co", "Translator"}, doc.Experience)
	assert.Equal(t, []string{"Home schooled"}, doc.Education)
	assert.Equal(t, []string{"math", "poetry", "engines"}, doc.Skills)
	assert.Equal(t, DefaultCVTemplate, doc.Template)
}

func TestProfileTextUnmarshal(t *testing.T) {
	var profile CVProfile
	raw := `{"name":"A","email":"a@b.c","experience":"one\ntwo","skills":["go","sql"],"education":null}`
	require.NoError(t, json.Unmarshal([]byte(raw), &profile))

	assert.Equal(t, []string{"one", "two"}, profile.Experience.Split("\n"))
	assert.Equal(t, []string{"go", "sql"}, profile.Skills.Split(","))
	assert.Empty(t, profile.Education.Split("\n"))
	assert.Error(t, json.Unmarshal([]byte(`{"skills":42}`), &profile))
}

func TestWriteCVWithoutKeyUsesTemplate(t *testing.T) {
	artifact, err := NewOpenAICVWriter("", "", "", nil, nil).WriteCV(context.Background(), CVRequest{Profile: sampleProfile(), Template: "classic"})
	require.NoError(t, err)

	assert.False(t, artifact.AIGenerated)
	doc, ok := artifact.Document.(CVDocument)
	require.True(t, ok)
	assert.Equal(t, "classic", doc.Template)
}

func openAIServer(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer oa-key", r.Header.Get("Authorization"))

		var body chatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-3.5-turbo", body.Model)
		assert.Equal(t, 2000, body.MaxTokens)
		if !assert.Len(t, body.Messages, 2) {
			return
		}
		assert.Equal(t, cvSystemPrompt, body.Messages[0].Content)
		assert.True(t, strings.Contains(body.Messages[1].Content, "- Name: Ada Lovelace"))

		if status != http.StatusOK {
			http.Error(w, "rate limited", status)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": content}}},
		})
	}))
}

func TestWriteCVParsesFencedJSON(t *testing.T) {
	srv := openAIServer(t, http.StatusOK, "```json\n{\"summary\":\"Pioneer\"}\n```")
	defer srv.Close()

	artifact, err := NewOpenAICVWriter("oa-key", srv.URL, "", nil, nil).WriteCV(context.Background(), CVRequest{Profile: sampleProfile()})
	require.NoError(t, err)

	assert.True(t, artifact.AIGenerated)
	doc, ok := artifact.Document.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Pioneer", doc["summary"])
}

func TestWriteCVFallsBackOnProseReply(t *testing.T) {
	srv := openAIServer(t, http.StatusOK, "Here is your CV: ...")
	defer srv.Close()

	artifact, err := NewOpenAICVWriter("oa-key", srv.URL, "", nil, nil).WriteCV(context.Background(), CVRequest{Profile: sampleProfile()})
	require.NoError(t, err)
	assert.False(t, artifact.AIGenerated)
	assert.IsType(t, CVDocument{}, artifact.Document)
}

func TestWriteCVFallsBackOnVendorError(t *testing.T) {
	srv := openAIServer(t, http.StatusTooManyRequests, "")
	defer srv.Close()

	artifact, err := NewOpenAICVWriter("oa-key", srv.URL, "", nil, nil).WriteCV(context.Background(), CVRequest{Profile: sampleProfile()})
	require.NoError(t, err)
	assert.False(t, artifact.AIGenerated)
}
