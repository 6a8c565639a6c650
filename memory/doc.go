// Package memory holds ordered conversation history for agents. A Memory is
// exclusively owned by one agent unless the caller deliberately shares a
// single instance across several agents; shared histories are append-only
// with insertion ordering.
//
// History can optionally be capped by turn count or by token budget; token
// accounting uses the tiktoken BPE for the configured model and degrades to a
// byte-length estimate when the encoding is unavailable.
package memory
