package validation

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

type testValidateInput struct {
	Value        string `json:"value"`
	FieldType    string `json:"fieldType" validate:"required,max=100"`
	SecurityOnly bool   `json:"securityOnly"`
	RequestID    string `header:"X-Request-ID"`
	Verbose      bool   `form:"verbose"`
}

func newInputContext(method, target, body string) *gin.Context {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}

	ctx, _ := gin.CreateTestContext(httptest.NewRecorder())
	ctx.Request = req
	return ctx
}

func TestBindInput(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("Bind JSON body, headers and query", func(t *testing.T) {
		ctx := newInputContext(http.MethodPost, "/validate?verbose=true", `{"value":"alice","fieldType":"userName"}`)
		ctx.Request.Header.Set("X-Request-ID", "req-1")

		input, err := BindInput[testValidateInput](ctx)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if input.Value != "alice" || input.FieldType != "userName" {
			t.Errorf("Expected body to be bound, got %+v", input)
		}
		if input.RequestID != "req-1" {
			t.Errorf("Expected RequestID 'req-1', got '%s'", input.RequestID)
		}
		if !input.Verbose {
			t.Error("Expected verbose query parameter to be bound")
		}
	})

	t.Run("GET request ignores the body", func(t *testing.T) {
		ctx := newInputContext(http.MethodGet, "/stats?verbose=1", "")

		input, err := BindInput[testValidateInput](ctx)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if !input.Verbose {
			t.Error("Expected verbose query parameter to be bound")
		}
	})

	t.Run("Malformed JSON is a bad request", func(t *testing.T) {
		ctx := newInputContext(http.MethodPost, "/validate", `{"value":`)

		_, err := BindInput[testValidateInput](ctx)
		if err == nil {
			t.Fatal("Expected error for malformed JSON")
		}
		if err.Code != http.StatusBadRequest {
			t.Errorf("Expected status %d, got %d", http.StatusBadRequest, err.Code)
		}
	})

	t.Run("Empty POST body is allowed", func(t *testing.T) {
		ctx := newInputContext(http.MethodPost, "/validate", "")

		if _, err := BindInput[testValidateInput](ctx); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
	})
}

func TestInputData(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("Valid input passes validation", func(t *testing.T) {
		ctx := newInputContext(http.MethodPost, "/validate", `{"value":"alice","fieldType":"userName"}`)

		input, err := InputData[testValidateInput](ctx)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if input.FieldType != "userName" {
			t.Errorf("Expected fieldType 'userName', got '%s'", input.FieldType)
		}
		if CustomValidator == nil {
			t.Error("Expected CustomValidator to be initialized")
		}
	})

	t.Run("Missing field type fails validation", func(t *testing.T) {
		ctx := newInputContext(http.MethodPost, "/validate", `{"value":"alice"}`)

		_, err := InputData[testValidateInput](ctx)
		if err == nil {
			t.Fatal("Expected validation error")
		}
		if err.Code != http.StatusUnprocessableEntity {
			t.Errorf("Expected status %d, got %d", http.StatusUnprocessableEntity, err.Code)
		}
		details, ok := err.Details.(map[string]string)
		if !ok {
			t.Fatalf("Expected map details, got %T", err.Details)
		}
		if details["testValidateInput.FieldType"] != "failed on validation tag 'required'" {
			t.Errorf("Unexpected details: %v", details)
		}
	})
}
