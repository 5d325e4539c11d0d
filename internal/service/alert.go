package service

import (
	"context"
	"fmt"

	"golang-watchlist/config"
	"golang-watchlist/internal/model"
	"golang-watchlist/pkg/logger"
	"golang-watchlist/pkg/utils"

	"golang.org/x/time/rate"
	"gopkg.in/telebot.v3"
)

// AlertNotifier reports a stock whose deviation from its 200-period moving
// average crossed one of the configured distance bands.
type AlertNotifier interface {
	NotifyBandBreach(ctx context.Context, stock model.DailyStock)
}

type telegramAlertNotifier struct {
	cfg     *config.Config
	log     *logger.Logger
	bot     *telebot.Bot
	limiter *rate.Limiter
}

func NewTelegramAlertNotifier(cfg *config.Config, log *logger.Logger, bot *telebot.Bot) AlertNotifier {
	return &telegramAlertNotifier{
		cfg:     cfg,
		log:     log,
		bot:     bot,
		limiter: rate.NewLimiter(rate.Limit(cfg.Telegram.MaxRequestPerSecond), 1),
	}
}

func (n *telegramAlertNotifier) NotifyBandBreach(ctx context.Context, stock model.DailyStock) {
	breach, direction := bandBreach(stock)
	if !breach {
		return
	}

	if err := n.limiter.Wait(ctx); err != nil {
		return
	}

	msg := fmt.Sprintf(
		"⚠️ <b>%s</b> %s da média 200\nPreço: %s\nDesvio: %s",
		stock.Symbol,
		direction,
		utils.FormatPrice(stock.CurrentPrice),
		utils.FormatPercentage(*stock.MovingAveragePct),
	)

	_, err := n.bot.Send(&telebot.User{ID: n.cfg.Telegram.ChatID}, msg, telebot.ModeHTML)
	if err != nil {
		n.log.ErrorContext(ctx, "Failed to send band breach alert",
			logger.StringField("symbol", stock.Symbol),
			logger.ErrorField(err),
		)
		return
	}

	n.log.InfoContext(ctx, "Band breach alert sent",
		logger.StringField("symbol", stock.Symbol),
		logger.Float64Field("deviation_pct", *stock.MovingAveragePct),
	)
}

// bandBreach reports whether the stock's deviation from its moving average
// crossed the lower (negative) or upper (positive) configured band. A zero
// band on either side disables that side.
func bandBreach(stock model.DailyStock) (bool, string) {
	if stock.MovingAveragePct == nil {
		return false, ""
	}
	dev := *stock.MovingAveragePct

	if stock.DistanceNegative < 0 && dev <= stock.DistanceNegative {
		return true, "abaixo"
	}
	if stock.DistancePositive > 0 && dev >= stock.DistancePositive {
		return true, "acima"
	}
	return false, ""
}

type noopAlertNotifier struct{}

// NewNoopAlertNotifier is used when no Telegram bot token is configured.
func NewNoopAlertNotifier() AlertNotifier {
	return noopAlertNotifier{}
}

func (noopAlertNotifier) NotifyBandBreach(context.Context, model.DailyStock) {}
