// Package conversation processes chat turns and owns the per-request error
// taxonomy.
//
// The Service sits between the session gateway and the agent layer. For each
// inbound message it loads the stored history, asks the agent for a reply,
// and appends both sides of the exchange in arrival order. The provider call
// precedes all writes: a provider failure leaves history exactly as it was,
// so the session can surface one error frame and keep going.
//
// Errors carry an ErrorKind (config_not_found, storage_error, provider_error,
// validation_error) that the transport layers map to HTTP status codes or
// WebSocket error frames. Nothing in this package retries.
package conversation
