package llm

import (
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain text", input: "Certificate of Merit", want: "Certificate of Merit"},
		{name: "surrounding whitespace", input: "\n  Certificate of Merit \n", want: "Certificate of Merit"},
		{name: "bare fence", input: "```\nCertificate of Merit\nIssued by: IEEE\n```", want: "Certificate of Merit\nIssued by: IEEE"},
		{name: "language tag", input: "```text\nCertificate of Merit\n```", want: "Certificate of Merit"},
		{name: "first line kept when it is content", input: "```Certificate of Merit awarded\nto Jane```", want: "Certificate of Merit awarded\nto Jane"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripCodeFence(tt.input))
		})
	}
}

func TestExtractTextFromResponse(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text("Certificate "), genai.Text("of Merit")}},
		}},
	}

	text, err := extractTextFromResponse(resp)
	require.NoError(t, err)
	assert.Equal(t, "Certificate of Merit", text)
}

func TestExtractTextFromResponse_Empty(t *testing.T) {
	_, err := extractTextFromResponse(nil)
	assert.Error(t, err)

	_, err = extractTextFromResponse(&genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}})
	assert.Error(t, err)

	_, err = extractTextFromResponse(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []genai.Part{genai.Blob{MIMEType: "image/png"}}}}},
	})
	assert.Error(t, err)
}
