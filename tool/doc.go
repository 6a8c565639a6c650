// Package tool defines callable function tools with JSON-Schema parameter
// definitions and a dispatcher that validates, coerces and executes model
// tool calls.
//
// Tools are constructed either from an explicit parameter list (New) or by
// reflecting over a struct type (NewFromStruct). The Dispatcher repairs
// malformed argument JSON, enforces required parameters and renders results
// back to the strings fed into the conversation.
package tool
