package whatsapp

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// AdminNotifier pushes handoff alerts to the admin's WhatsApp.
type AdminNotifier struct {
	out    Outbound
	admin  string
	logger *zap.Logger
}

func NewAdminNotifier(out Outbound, adminPhone string, logger *zap.Logger) *AdminNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminNotifier{out: out, admin: adminPhone, logger: logger.Named("notify")}
}

func (n *AdminNotifier) NotifyHandoff(ctx context.Context, user, reason, lastMessage string) error {
	if n.admin == "" {
		n.logger.Debug("no admin phone configured, skipping alert", zap.String("user", user))
		return nil
	}
	body := fmt.Sprintf("🚨 Cliente requiere asesor\n\nCliente: +%s\nMotivo: %s\nÚltimo mensaje: %s\n\n"+
		"Escribe #bot en su chat para reactivar el bot.", ToInternational(user), reason, short(lastMessage))

	if err := n.out.SendText(ctx, ToInternational(n.admin), body); err != nil {
		return fmt.Errorf("notify admin: %w", err)
	}
	return nil
}
