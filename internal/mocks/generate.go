// Package mocks provides gomock mocks for the provider gateway interfaces.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	gw := mocks.NewMockGateway(ctrl)
//	gw.EXPECT().Chat(gomock.Any(), gomock.Any()).Return(&gateway.ChatResponse{Answer: "ok"}, nil)
package mocks

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=gateway_mock.go github.com/rshade/promptbatch/internal/gateway Gateway,TokenCounter
