package usecase

import (
	"context"
	"log/slog"

	"storefront/internal/mailtmpl"
	"storefront/internal/notify"
)

// メール送信はベストエフォート。受け付けられなかったらログだけ残す。
func dispatchEmail(ctx context.Context, d notify.Dispatcher, to, replyTo, ref string, r mailtmpl.Rendered) notify.Receipt {
	rc := d.Dispatch(ctx, notify.Message{
		Channel: notify.ChannelEmail,
		To:      to,
		Subject: r.Subject,
		HTML:    r.HTML,
		ReplyTo: replyTo,
		Ref:     ref,
	})
	if !rc.Accepted {
		slog.WarnContext(ctx, "email not accepted for delivery", "ref", ref)
	}
	return rc
}
