// Package qa defines the call contract of the external document
// question-answering engine and provides a client for a Doc_QA service
// reachable over HTTP. The engine owns retrieval and, for identifier models,
// generation; callable models receive the retrieved prompt and answer locally.
package qa
