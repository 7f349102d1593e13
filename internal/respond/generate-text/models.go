// internal/respond/generate-text/models.go
package generatetext

type Input struct {
	Prompt string `json:"prompt"`
}

type Output struct {
	Text       string `json:"text"`
	Model      string `json:"model"`
	TokensUsed int    `json:"tokensUsed"`
}
