// Package service runs shared-ownership verification scenarios and keeps
// their reports. It is the only component that creates handles on behalf of
// callers, and it is decoupled from transports like gRPC.
package service
