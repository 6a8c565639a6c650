// Package agent implements the execution unit of the engine: a named wrapper
// around one language model with instructions, tools, optional knowledge
// retrieval and conversation memory.
//
// Invoke drives the model synchronously over the agent's full history,
// transparently handling tool call round-trips through the tool dispatcher.
// Route performs the model-delegated edge selection used by graphs at branch
// points; its output is an untrusted raw string that the graph validates
// strictly against the legal target set.
package agent
