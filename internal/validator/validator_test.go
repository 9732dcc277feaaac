package validator

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/quizroom-backend/internal/model"
)

func init() {
	gin.SetMode(gin.TestMode)
	Setup()
}

func bindBody(t *testing.T, body string, dst interface{}) map[string]string {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return Bind(c, dst)
}

func TestCreateQuestionValid(t *testing.T) {
	var req model.CreateQuestionRequest
	fields := bindBody(t, `{
		"title": "Capital",
		"content": "Capital of Japan?",
		"options": [{"id":"a","text":"Tokyo"},{"id":"b","text":"Osaka"}],
		"correct_answer": "a",
		"difficulty": "easy",
		"tags": ["geo"]
	}`, &req)
	if fields != nil {
		t.Fatalf("unexpected errors: %v", fields)
	}
}

func TestCreateQuestionCorrectAnswerMustBeOption(t *testing.T) {
	var req model.CreateQuestionRequest
	fields := bindBody(t, `{
		"title": "Capital",
		"content": "Capital of Japan?",
		"options": [{"id":"a","text":"Tokyo"},{"id":"b","text":"Osaka"}],
		"correct_answer": "c"
	}`, &req)
	if fields["correct_answer"] == "" {
		t.Fatalf("expected correct_answer error, got %v", fields)
	}
}

func TestCreateQuestionOptionRules(t *testing.T) {
	tests := map[string]string{
		"too few":   `[{"id":"a","text":"x"}]`,
		"duplicate": `[{"id":"a","text":"x"},{"id":"a","text":"y"}]`,
		"too many":  `[{"id":"a","text":"1"},{"id":"b","text":"2"},{"id":"c","text":"3"},{"id":"d","text":"4"},{"id":"e","text":"5"},{"id":"f","text":"6"},{"id":"g","text":"7"}]`,
	}
	for name, opts := range tests {
		t.Run(name, func(t *testing.T) {
			var req model.CreateQuestionRequest
			fields := bindBody(t, `{"title":"t","content":"c","correct_answer":"a","options":`+opts+`}`, &req)
			if fields["options"] == "" {
				t.Errorf("expected options error, got %v", fields)
			}
		})
	}
}

func TestRegisterUsernameRule(t *testing.T) {
	var req model.RegisterRequest
	fields := bindBody(t, `{
		"username": "no spaces allowed",
		"email": "x@example.com",
		"password": "secret1",
		"role": "student",
		"profile": {"first_name": "A", "last_name": "B"}
	}`, &req)
	if !strings.Contains(fields["username"], "3-30") {
		t.Fatalf("expected username message, got %v", fields)
	}
}

func TestSubmitRequiresAnswers(t *testing.T) {
	var req model.SubmitQuizRequest
	fields := bindBody(t, `{"answers": [], "start_time": "2025-01-01T10:00:00Z"}`, &req)
	if fields["answers"] == "" {
		t.Fatalf("expected answers error, got %v", fields)
	}
}

func TestTranslateFieldErrors(t *testing.T) {
	fields := TranslateErrors(model.FieldErrors{"questions": "a quiz must contain at least one question"})
	if fields["questions"] == "" {
		t.Errorf("FieldErrors not passed through: %v", fields)
	}
}
