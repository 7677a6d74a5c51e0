package stub

import (
	"fmt"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

var checkoutPage = template.Must(template.New("checkout").Parse(`<!doctype html>
<html><head><meta charset="utf-8"><title>Stub checkout</title></head>
<body style="font-family: sans-serif; max-width: 480px; margin: 40px auto;">
<h2>Test payment</h2>
<p>{{.Contest}}</p>
<p><strong>{{.Amount}} {{.Currency}}</strong></p>
<form method="post" action="/pay/stub/{{.ID}}/complete?sig={{.Sig}}"><button type="submit">Pay</button></form>
<form method="post" action="/pay/stub/{{.ID}}/cancel?sig={{.Sig}}"><button type="submit">Cancel</button></form>
</body></html>`))

// RegisterRoutes mounts the stub checkout page
func (p *Provider) RegisterRoutes(r gin.IRoutes) {
	r.GET("/pay/stub/:id", p.showCheckout)
	r.POST("/pay/stub/:id/complete", p.completeCheckout)
	r.POST("/pay/stub/:id/cancel", p.cancelCheckout)
}

func (p *Provider) verified(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if !p.Verify(id, c.Query("sig")) {
		c.JSON(http.StatusForbidden, gin.H{"message": "invalid signature"})
		return "", false
	}
	return id, true
}

func (p *Provider) showCheckout(c *gin.Context) {
	id, ok := p.verified(c)
	if !ok {
		return
	}
	s, found := p.describe(id)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"message": "Payment session not found"})
		return
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	err := checkoutPage.Execute(c.Writer, map[string]string{
		"ID":       id,
		"Sig":      p.Sign(id),
		"Contest":  s.contestName,
		"Amount":   decimal.New(s.AmountMinor, -2).StringFixed(2),
		"Currency": s.Currency,
	})
	if err != nil {
		c.Error(fmt.Errorf("render stub checkout: %w", err))
	}
}

func (p *Provider) completeCheckout(c *gin.Context) {
	id, ok := p.verified(c)
	if !ok {
		return
	}
	target, err := p.Complete(id)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"message": err.Error()})
		return
	}
	c.Redirect(http.StatusSeeOther, target)
}

func (p *Provider) cancelCheckout(c *gin.Context) {
	id, ok := p.verified(c)
	if !ok {
		return
	}
	target, err := p.Cancel(id)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"message": err.Error()})
		return
	}
	c.Redirect(http.StatusSeeOther, target)
}
