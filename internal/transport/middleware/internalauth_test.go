package middleware

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("InternalAuth", func() {
	var reached bool

	const token = "sweep-trigger-secret"

	newHandler := func(configured string) http.Handler {
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		return InternalAuth(configured, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reached = true
			w.WriteHeader(http.StatusOK)
		}))
	}

	BeforeEach(func() {
		reached = false
	})

	serve := func(handler http.Handler, presented string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/internal/recurring-expenses/materialize", nil)
		if presented != "" {
			req.Header.Set(InternalTokenHeader, presented)
		}
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	It("should let a request with the configured token through", func() {
		w := serve(newHandler(token), token)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(reached).To(BeTrue())
	})

	It("should reject a request without the token header", func() {
		w := serve(newHandler(token), "")

		Expect(w.Code).To(Equal(http.StatusUnauthorized))
		Expect(reached).To(BeFalse())
	})

	It("should reject a wrong token", func() {
		w := serve(newHandler(token), "guessed-secret")

		Expect(w.Code).To(Equal(http.StatusUnauthorized))
		Expect(reached).To(BeFalse())
	})

	It("should reject everything when no token is configured", func() {
		w := serve(newHandler(""), "")

		Expect(w.Code).To(Equal(http.StatusUnauthorized))
		Expect(reached).To(BeFalse())
	})
})
