// Package knowledge provides an embedded vector store for
// retrieval-augmented agents, built on chromem-go. Documents are embedded at
// insert time and retrieved by semantic similarity; the Store satisfies
// agent.Retriever so its passages can be folded into agent instructions.
package knowledge
