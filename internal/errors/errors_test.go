package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "error without cause",
			err:  &AppError{Code: ErrCodeNotFound, Message: "interview not found"},
			want: "interview not found",
		},
		{
			name: "error with cause",
			err: &AppError{
				Code:    ErrCodeTransient,
				Message: "fetch interviews",
				Cause:   errors.New("connection reset"),
			},
			want: "fetch interviews: connection reset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("AppError.Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(cause, ErrCodeSendFailure, "post message")

	if !errors.Is(err, cause) {
		t.Errorf("errors.Is(wrapped, cause) = false")
	}
	if Wrap(nil, ErrCodeInternal, "x") != nil {
		t.Errorf("Wrap(nil) should return nil")
	}
	if Wrapf(nil, ErrCodeInternal, "x %d", 1) != nil {
		t.Errorf("Wrapf(nil) should return nil")
	}
}

func TestConstructorsAndPredicates(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		code  ErrorCode
		check func(error) bool
	}{
		{"not found", NotFound("gone"), ErrCodeNotFound, IsNotFound},
		{"not foundf", NotFoundf("interview %s", "1"), ErrCodeNotFound, IsNotFound},
		{"transient", Transient("502"), ErrCodeTransient, IsTransient},
		{"transientf", Transientf("status %d", 503), ErrCodeTransient, IsTransient},
		{"send failure", SendFailure("rejected"), ErrCodeSendFailure, IsSendFailure},
		{"send failuref", SendFailuref("slack: %s", "channel_not_found"), ErrCodeSendFailure, IsSendFailure},
		{"configuration", Configuration("bad token"), ErrCodeConfiguration, IsConfiguration},
		{"validation", Validationf("too many users: %d", 9), ErrCodeValidation, IsValidation},
		{"conflict", Conflict("dup"), ErrCodeConflict, IsConflict},
		{"internal", Internalf("boom %d", 1), ErrCodeInternal, IsInternal},
		{"timeout", &AppError{Code: ErrCodeTimeout}, ErrCodeTimeout, IsTimeout},
		{"canceled", &AppError{Code: ErrCodeCanceled}, ErrCodeCanceled, IsCanceled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.code {
				t.Errorf("GetCode() = %v, want %v", got, tt.code)
			}
			if !tt.check(tt.err) {
				t.Errorf("predicate returned false for %v", tt.err)
			}
			wrapped := fmt.Errorf("outer: %w", tt.err)
			if !tt.check(wrapped) {
				t.Errorf("predicate should see through fmt.Errorf wrapping")
			}
		})
	}
}

func TestPlainConstructorKeepsPercent(t *testing.T) {
	err := NotFound("100% gone")
	if err.Message != "100% gone" {
		t.Errorf("Message = %q", err.Message)
	}
	if msg := NotFoundf("interview %s", "42").Message; msg != "interview 42" {
		t.Errorf("NotFoundf message = %q", msg)
	}
}

func TestConfigurationField(t *testing.T) {
	err := ConfigurationField("SLACK_BOT_TOKEN", "is required")
	if GetField(err) != "SLACK_BOT_TOKEN" {
		t.Errorf("GetField() = %q", GetField(err))
	}
	if GetField(errors.New("plain")) != "" {
		t.Errorf("GetField(plain) should be empty")
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(Transient("x")) || !IsRetryable(SendFailure("x")) {
		t.Errorf("transient and send failures are retryable")
	}
	if !IsRetryable(&AppError{Code: ErrCodeTimeout}) {
		t.Errorf("timeouts are retryable")
	}
	if IsRetryable(NotFound("x")) || IsRetryable(Configuration("x")) || IsRetryable(errors.New("x")) {
		t.Errorf("not found, configuration and plain errors are not retryable")
	}
}

func TestGetCodePlainError(t *testing.T) {
	if GetCode(errors.New("plain")) != "" {
		t.Errorf("GetCode(plain) should be empty")
	}
}
