package push

import (
	"github.com/sirupsen/logrus"
)

// LogGateway is a dev-mode gateway that logs sends instead of calling FCM
type LogGateway struct {
	logger *logrus.Logger
}

// NewLogGateway creates a new log-only gateway
func NewLogGateway(logger *logrus.Logger) *LogGateway {
	return &LogGateway{logger: logger}
}

// GetName returns the gateway implementation name
func (g *LogGateway) GetName() string {
	return "log"
}

// SendToToken logs a single-token send
func (g *LogGateway) SendToToken(token, title, body string, data map[string]string) error {
	g.logger.WithFields(logrus.Fields{
		"token": token,
		"title": title,
		"data":  data,
	}).Info("push (dev mode): would send to token")
	return nil
}

// SendToMany logs a multicast send, reporting every token as delivered
func (g *LogGateway) SendToMany(tokens []string, title, body string, data map[string]string) (*MulticastResult, error) {
	g.logger.WithFields(logrus.Fields{
		"tokens": len(tokens),
		"title":  title,
		"data":   data,
	}).Info("push (dev mode): would send multicast")
	return &MulticastResult{SuccessCount: len(tokens)}, nil
}
