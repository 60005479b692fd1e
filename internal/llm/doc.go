// Package llm talks to hosted language models for the dashboard assistant.
// It supports OpenAI, Anthropic and Gemini, with retries on transient API
// errors and an optional request rate limit.
package llm
