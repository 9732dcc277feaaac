package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrTokenExpired       ErrCode = "TOKEN_EXPIRED"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden         ErrCode = "FORBIDDEN"
	ErrStudentAccessOnly ErrCode = "STUDENT_ACCESS_ONLY"
	ErrTeacherAccessOnly ErrCode = "TEACHER_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation       ErrCode = "VALIDATION_ERROR"
	ErrInvalidID        ErrCode = "INVALID_ID"
	ErrInvalidQuery     ErrCode = "INVALID_QUERY"
	ErrInvalidAnswerSet ErrCode = "INVALID_ANSWER_SET"
	ErrInvalidStartTime ErrCode = "INVALID_START_TIME"
	ErrUnknownQuestions ErrCode = "UNKNOWN_QUESTIONS"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound           ErrCode = "NOT_FOUND"
	ErrUserNotFound       ErrCode = "USER_NOT_FOUND"
	ErrQuestionNotFound   ErrCode = "QUESTION_NOT_FOUND"
	ErrQuizNotFound       ErrCode = "QUIZ_NOT_FOUND"
	ErrSubmissionNotFound ErrCode = "SUBMISSION_NOT_FOUND"
	ErrUsernameTaken      ErrCode = "USERNAME_TAKEN"
	ErrEmailTaken         ErrCode = "EMAIL_TAKEN"
	ErrQuestionInUse      ErrCode = "QUESTION_IN_USE"
	ErrQuizHasNoQuestions ErrCode = "QUIZ_HAS_NO_QUESTIONS"

	// ─── Quiz attempts ─────────────────────────────────────────────────
	ErrQuizAlreadyCompleted ErrCode = "QUIZ_ALREADY_COMPLETED"
	ErrQuizAlreadySubmitted ErrCode = "QUIZ_ALREADY_SUBMITTED"

	// ─── Upstream ──────────────────────────────────────────────────────
	ErrAnalysisUnavailable ErrCode = "AI_ANALYSIS_UNAVAILABLE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Username atau kata sandi salah."
	case ErrTokenRequired:
		return "Token autentikasi diperlukan."
	case ErrTokenInvalid:
		return "Token autentikasi tidak valid."
	case ErrTokenExpired:
		return "Token autentikasi telah kedaluwarsa."
	case ErrSessionInvalidated:
		return "Sesi Anda telah berakhir. Silakan login kembali."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "Anda tidak memiliki izin untuk mengakses sumber daya ini."
	case ErrStudentAccessOnly:
		return "Sumber daya ini terbatas untuk siswa."
	case ErrTeacherAccessOnly:
		return "Sumber daya ini terbatas untuk guru."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Data yang dikirim tidak valid."
	case ErrInvalidID:
		return "Format ID tidak valid."
	case ErrInvalidQuery:
		return "Parameter kueri tidak valid."
	case ErrInvalidAnswerSet:
		return "Jawaban harus berisi tepat satu jawaban untuk setiap soal kuis."
	case ErrInvalidStartTime:
		return "Waktu mulai tidak boleh setelah waktu pengumpulan."
	case ErrUnknownQuestions:
		return "Beberapa soal tidak ditemukan atau bukan milik Anda."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Data tidak ditemukan."
	case ErrUserNotFound:
		return "Pengguna tidak ditemukan."
	case ErrQuestionNotFound:
		return "Soal tidak ditemukan."
	case ErrQuizNotFound:
		return "Kuis tidak ditemukan."
	case ErrSubmissionNotFound:
		return "Hasil pengerjaan tidak ditemukan."
	case ErrUsernameTaken:
		return "Username sudah digunakan."
	case ErrEmailTaken:
		return "Email sudah digunakan."
	case ErrQuestionInUse:
		return "Soal ini adalah satu-satunya soal pada sebuah kuis dan tidak dapat dihapus."
	case ErrQuizHasNoQuestions:
		return "Kuis tanpa soal tidak dapat dipublikasikan."

	// ─── Quiz attempts ─────────────────────────────────────────────────
	case ErrQuizAlreadyCompleted:
		return "Anda sudah menyelesaikan kuis ini."
	case ErrQuizAlreadySubmitted:
		return "Anda sudah mengumpulkan kuis ini."

	// ─── Upstream ──────────────────────────────────────────────────────
	case ErrAnalysisUnavailable:
		return "Layanan analisis AI sedang tidak tersedia. Silakan coba lagi."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Terlalu banyak permintaan. Silakan coba lagi nanti."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Terjadi kesalahan pada server."
	default:
		return "Terjadi kesalahan."
	}
}
