// internal/app/bootstrap/deps.go
package bootstrap

import (
	"github.com/palmtreesdigital/fundingconnect/pantry/email"
	"github.com/palmtreesdigital/fundingconnect/pantry/templates"
)

// Deps are built once at startup and shared by every request.
type Deps struct {
	Transport email.Transport
	Pages     *templates.Engine
}
