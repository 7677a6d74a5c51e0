package response

import (
	"contesthub/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Error sends a standardized error response
func Error(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"message": message})
}

// Success sends a standardized success response
func Success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}

// Message sends a plain acknowledgement
func Message(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"message": message})
}

// FromError replies with the status and public message of a service error.
// Server-side failures are logged with their cause.
func FromError(c *gin.Context, log logrus.FieldLogger, err error) {
	status := services.HTTPStatus(err)
	if status >= 500 {
		log.WithError(err).WithField("path", c.FullPath()).Error("Request failed")
	}
	c.Error(err)
	Error(c, status, services.PublicMessage(err))
}
