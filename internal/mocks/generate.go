// Package mocks provides gomock implementations of the reminder service ports.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	messenger := mocks.NewMockMessenger(ctrl)
//	messenger.EXPECT().SendMessage(gomock.Any(), model.ConversationID("G1"), gomock.Any()).Return(ack, nil)
package mocks

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=interview_source_mock.go github.com/target/interview-reminder/internal/core InterviewSource
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=interview_details_source_mock.go github.com/target/interview-reminder/internal/core InterviewDetailsSource
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=messenger_mock.go github.com/target/interview-reminder/internal/core Messenger
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=delivery_ledger_mock.go github.com/target/interview-reminder/internal/core DeliveryLedger
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=participant_cache_mock.go github.com/target/interview-reminder/internal/core ParticipantCache
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=failure_notifier_mock.go github.com/target/interview-reminder/internal/core FailureNotifier
