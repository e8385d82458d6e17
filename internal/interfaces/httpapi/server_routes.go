package httpapi

import (
	"net/http"
	"strconv"

	"github.com/riskibarqy/armory-onboarding/internal/domain/onboarding"
)

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, metrics *Metrics, swaggerEnabled bool) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	if metrics != nil {
		mux.Handle("GET /metrics", metrics.Handler())
	}
	if !swaggerEnabled {
		return
	}

	mux.HandleFunc("GET "+openAPIPath, handler.OpenAPI)
	mux.HandleFunc("GET /docs", handler.SwaggerUI)
	mux.HandleFunc("GET /docs/", handler.SwaggerUI)
}

func registerPublicRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /references/countries", handler.ListCountries)
	mux.HandleFunc("GET /references/{kind}", handler.ListReferences)
}

func registerAuthorizedRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier, limiter *RateLimiter) {
	auth := func(h http.HandlerFunc) http.Handler {
		return RequireAuth(verifier, h)
	}
	// Writes are limited per principal.
	authWrite := func(h http.HandlerFunc) http.Handler {
		return RequireAuth(verifier, limiter.Limit(h))
	}

	mux.Handle("GET /onboarding/profile", auth(handler.GetOnboardingProfile))
	for index := 0; index <= onboarding.FormSteps; index++ {
		mux.Handle("POST /onboarding/step"+strconv.Itoa(index), authWrite(handler.SubmitOnboardingStep(index)))
	}
	mux.Handle("POST /upload/files", authWrite(handler.UploadFiles))
	mux.Handle("GET /onboarding/documents", auth(handler.ListMyDocuments))
	mux.Handle("GET /files/{name}", auth(handler.ServeFile))
	mux.Handle("GET "+onboarding.VerificationEndpoint, auth(handler.GetVerification))
	mux.Handle("POST "+onboarding.VerificationEndpoint, authWrite(handler.TransitionVerification))
}

func registerInternalRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /internal/jobs/bank-verification", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunBankVerificationJob)))
	mux.Handle("POST /internal/reviews/{userID}", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.ReviewProfile)))
}
