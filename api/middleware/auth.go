/*
Copyright 2024 Bookbank Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/bookbank/bookbank/model"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const callerKey = "bookbank.caller"

// IdentityMiddleware authenticates the bearer token of every request and
// stores the acting user for the handlers. Tokens are HS256-signed with the
// server secret key; "sub" is the user id, "email" and "name" are optional.
func IdentityMiddleware(secretKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secretKey == "" {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Secret key is not configured"})
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid Authorization header format"})
			return
		}

		caller, err := ParseCaller(tokenString, secretKey)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token: " + err.Error()})
			return
		}

		c.Set(callerKey, caller)
		c.Next()
	}
}

// ParseCaller validates tokenString and returns the user it was issued to.
func ParseCaller(tokenString, secretKey string) (model.Caller, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(secretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return model.Caller{}, err
	}

	userID, err := claims.GetSubject()
	if err != nil || userID == "" {
		return model.Caller{}, errors.New("user id not found in token")
	}

	caller := model.Caller{UserID: userID}
	caller.Email, _ = claims["email"].(string)
	caller.Name, _ = claims["name"].(string)
	return caller, nil
}

// CallerFromContext returns the user set by IdentityMiddleware.
func CallerFromContext(c *gin.Context) (model.Caller, bool) {
	value, ok := c.Get(callerKey)
	if !ok {
		return model.Caller{}, false
	}
	caller, ok := value.(model.Caller)
	return caller, ok
}
