// Package model defines the provider-agnostic abstractions for interacting
// with language models.
//
// Core goals:
//   - Keep request/response shapes minimal and transport independent
//   - Normalize tool / function call representation across vendors
//   - Facilitate lightweight mocking for tests (MockModel)
//
// Providers (e.g. OpenAI, Anthropic) implement the Model interface from this
// package so higher layers (agents, graphs) remain decoupled from vendor
// SDKs. Generation is synchronous: traversal never issues call N+1 before
// call N returns.
package model
