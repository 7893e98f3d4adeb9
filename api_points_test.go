package main

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"bitbucket.org/mmdatafocus/recycle_backend/utils"
	"github.com/gin-gonic/gin"
)

func TestWriteModelErrorStatusCodes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not found", fmt.Errorf("%w: supplier 9", utils.ErrorRecordNotFound), http.StatusNotFound},
		{"validation", fmt.Errorf("%w: insufficient points", utils.ErrorValidation), http.StatusBadRequest},
		{"conflict", utils.ErrorConflict, http.StatusConflict},
		{"bad credentials", fmt.Errorf("%w: invalid username or password", utils.ErrorUnauthorized), http.StatusUnauthorized},
		{"disabled account", fmt.Errorf("%w: user is disabled", utils.ErrorForbidden), http.StatusForbidden},
		{"unexpected", errors.New("driver: bad connection"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			writeModelError(c, tc.err)
			if w.Code != tc.want {
				t.Fatalf("got status %d; want %d", w.Code, tc.want)
			}
		})
	}
}
