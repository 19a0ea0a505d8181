package controllers

import (
	"net/http"

	"github.com/angelmondragon/storefront-backend/api/responses"
)

const welcomeMessage = "Welcome to the E-commerce API"

func Root() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"message": welcomeMessage})
	}
}
