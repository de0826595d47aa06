// Package model defines the provider-agnostic completion transport used by
// the agent loop, plus a scripted MockModel for tests and examples.
//
// A Model streams text deltas for a conversation of rendered turns. Concrete
// providers (OpenAI, Anthropic, Gemini) live in sub-packages so the agent
// stays decoupled from vendor SDKs.
package model
