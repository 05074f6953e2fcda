// Package api provides the REST API server for midilearn. It exposes the
// mapping-setup-time operations: pattern validation and matching, and
// control value normalization previews.
package api

import (
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/james-see/midilearn/pkg/control"
	"github.com/james-see/midilearn/pkg/pattern"
	"github.com/james-see/midilearn/pkg/source"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title MIDILearn API
// @version 1.0
// @description API for validating control-surface source patterns and previewing value normalization
// @host localhost:8080
// @BasePath /api/v1

// StartServer starts the API server on the specified port
func StartServer(port int) error {
	r := gin.Default()

	// CORS middleware
	r.Use(corsMiddleware())

	// Health check
	r.GET("/health", healthCheck)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.POST("/pattern/validate", handleValidatePattern)
		v1.POST("/pattern/match", handleMatchPattern)
		v1.POST("/normalize", handleNormalize)
		v1.GET("/encodings", listEncodings)
	}

	// Swagger docs
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r.Run(fmt.Sprintf(":%d", port))
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// healthCheck godoc
// @Summary Health check endpoint
// @Description Returns the health status of the API
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "midilearn",
	})
}

// PatternRequest is the body for the pattern endpoints. Bytes is a hex
// string ("F0 43 10 F7", spaces optional) and only used by pattern/match.
type PatternRequest struct {
	Pattern string `json:"pattern" binding:"required"`
	Bytes   string `json:"bytes"`
}

// handleValidatePattern godoc
// @Summary Validate a sysex pattern spec
// @Description Compiles the textual pattern and returns its canonical form
// @Tags pattern
// @Accept json
// @Produce json
// @Param request body PatternRequest true "Pattern to validate"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Router /api/v1/pattern/validate [post]
func handleValidatePattern(c *gin.Context) {
	var req PatternRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := pattern.Parse(req.Pattern)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"valid": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"valid":     true,
		"canonical": p.String(),
		"segments":  p.Len(),
		"openTail":  p.HasOpenTail(),
	})
}

// handleMatchPattern godoc
// @Summary Match bytes against a sysex pattern
// @Description Compiles the pattern and matches it against the given hex bytes
// @Tags pattern
// @Accept json
// @Produce json
// @Param request body PatternRequest true "Pattern and hex bytes"
// @Success 200 {object} map[string]bool
// @Failure 400 {object} map[string]string
// @Router /api/v1/pattern/match [post]
func handleMatchPattern(c *gin.Context) {
	var req PatternRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := pattern.Parse(req.Pattern)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	data, err := hex.DecodeString(strings.ReplaceAll(req.Bytes, " ", ""))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid hex bytes: %v", err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"match": p.Matches(data)})
}

// NormalizeRequest is the body for the normalize endpoint.
type NormalizeRequest struct {
	Source  SourceDTO  `json:"source" binding:"required"`
	Payload PayloadDTO `json:"payload" binding:"required"`
	Mode    string     `json:"mode"`
}

// handleNormalize godoc
// @Summary Preview value normalization
// @Description Normalizes a raw payload for a source and interpretation mode
// @Tags normalize
// @Accept json
// @Produce json
// @Param request body NormalizeRequest true "Source, payload and mode"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Router /api/v1/normalize [post]
func handleNormalize(c *gin.Context) {
	var req NormalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	src, err := req.Source.ToSource()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	payload, err := req.Payload.ToPayload()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	mode := control.ModeAbsolute
	if req.Mode == "relative" {
		mode = control.ModeRelative
	}

	v, err := control.Normalize(&src, payload, mode)
	if err != nil {
		// Unsupported source/mode combinations are configuration errors.
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if v.IsRelative() {
		c.JSON(http.StatusOK, gin.H{"kind": "relative", "steps": v.Steps()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"kind": "absolute", "unit": v.Unit()})
}

// listEncodings godoc
// @Summary List relative encodings
// @Description Returns the supported relative encoding conventions
// @Tags info
// @Produce json
// @Success 200 {object} map[string][]string
// @Router /api/v1/encodings [get]
func listEncodings(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"encodings": []string{
			source.EncodingCentered64.String(),
			source.EncodingSignMagnitude.String(),
			source.EncodingIncDec.String(),
		},
	})
}
