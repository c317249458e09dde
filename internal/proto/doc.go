// Package proto holds the RosterSync gRPC stubs. The service only uses
// protobuf well-known types, so protoc-gen-go-grpc output is all there is.
package proto

//go:generate protoc --go-grpc_out=. --go-grpc_opt=paths=source_relative rostersync.proto
