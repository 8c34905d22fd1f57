package telegram

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"guthealth-planner/internal/clipper"
	"guthealth-planner/internal/config"
	"guthealth-planner/internal/metrics"
	"guthealth-planner/internal/nutrition"
	"guthealth-planner/internal/plan"
	"guthealth-planner/internal/profile"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
)

// Bot wraps the Telegram API and drives one plan reconciler per chat.
type Bot struct {
	api          *tgbotapi.BotAPI
	cfg          *config.Config
	provider     plan.SuggestionProvider
	snapshots    plan.Snapshotter
	clipper      *clipper.Clipper
	metricsStore *metrics.Store
	profileRepo  *profile.Repository
	sessionRepo  *SessionRepository

	mu          sync.Mutex
	reconcilers map[int64]*plan.Reconciler
}

// NewBot initializes the Telegram Bot and sets the Webhook.
func NewBot(
	cfg *config.Config,
	provider plan.SuggestionProvider,
	snapshots plan.Snapshotter,
	clip *clipper.Clipper,
	metricsStore *metrics.Store,
	profileRepo *profile.Repository,
	sessionRepo *SessionRepository,
) (*Bot, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}

	log.Printf("Authorized on account %s", bot.Self.UserName)

	wh, _ := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
	resp, err := bot.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
	}
	log.Printf("Webhook set response: %s", resp.Description)

	return &Bot{
		api:          bot,
		cfg:          cfg,
		provider:     provider,
		snapshots:    snapshots,
		clipper:      clip,
		metricsStore: metricsStore,
		profileRepo:  profileRepo,
		sessionRepo:  sessionRepo,
		reconcilers:  make(map[int64]*plan.Reconciler),
	}, nil
}

// RegisterHandlers registers the webhook handler with the default HTTP mux.
func (b *Bot) RegisterHandlers() {
	http.HandleFunc("/webhook", b.handleWebhook)
	http.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	update, err := b.api.HandleUpdate(r)
	if err != nil {
		log.Printf("Error parsing update: %v", err)
		return
	}

	if update.Message == nil {
		return
	}

	isAllowed := false
	for _, id := range b.cfg.TelegramAllowedUserIDs {
		if update.Message.From.ID == id {
			isAllowed = true
			break
		}
	}

	if !isAllowed {
		log.Printf("⚠️ Unauthorized access attempt from UserID: %d (@%s)", update.Message.From.ID, update.Message.From.UserName)
		return
	}

	go b.processMessage(update.Message)
}

func (b *Bot) processMessage(msg *tgbotapi.Message) {
	text := strings.TrimSpace(msg.Text)

	if strings.HasPrefix(text, "http://") || strings.HasPrefix(text, "https://") {
		b.handleClipRequest(msg.Chat.ID, text)
		return
	}

	cmd, arg := splitCommand(text)
	switch cmd {
	case "/start", "/help":
		b.reply(msg.Chat.ID, helpText)
	case "/day":
		b.handleDay(msg.Chat.ID, arg)
	case "/meal":
		b.handleMeal(msg.Chat.ID, arg)
	case "/suggest":
		b.handleSuggest(msg.Chat.ID)
	case "/reroll":
		b.handleReroll(msg.Chat.ID, arg)
	case "/add":
		b.handleAdd(msg.Chat.ID)
	case "/regen":
		b.handleRegen(msg.Chat.ID)
	case "/targets":
		b.handleTargets(msg.Chat.ID)
	case "/metrics":
		b.handleMetrics(msg.Chat.ID)
	default:
		b.reply(msg.Chat.ID, "Unknown command. Send /help for the command list.")
	}
}

const helpText = `🥗 *Gut Health Planner*

/day N — jump to day N of the 21-day plan
/meal <breakfast|lunch|dinner|snack> — switch meal slot
/suggest — suggest dishes for the current slot
/reroll N — replace dish N with a new one
/add — add one more dish (3 per slot max)
/regen — regenerate the whole slot
/targets — show daily and per-slot targets
/metrics — usage and health report
Paste a recipe URL to import it.`

// reconcilerFor returns the chat's reconciler, restoring its persisted
// position or starting a fresh run when none exists.
func (b *Bot) reconcilerFor(ctx context.Context, chatID int64) (*plan.Reconciler, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if r, ok := b.reconcilers[chatID]; ok {
		return r, nil
	}

	p, err := b.profileRepo.Latest(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if p == nil {
		return nil, fmt.Errorf("no profile found: create one with the CLI first")
	}

	daily := nutrition.DailyTargets(p)
	slotTargets := nutrition.SplitByMealSlot(daily)

	runID := uuid.NewString()
	dayIndex := 1
	slot := nutrition.SlotBreakfast

	if sess, err := b.sessionRepo.Get(ctx, chatID); err != nil {
		log.Printf("Warning: failed to load session for chat %d: %v", chatID, err)
	} else if sess != nil {
		runID = sess.RunID
		dayIndex = sess.DayIndex
		if s, ok := nutrition.ParseSlot(sess.MealSlot); ok {
			slot = s
		}
	}

	r := plan.NewReconciler(runID, b.provider, b.snapshots, p, slotTargets)
	r.SetPersonalNote(b.cfg.PersonalNote)
	r.SelectDay(dayIndex)
	r.SelectSlot(slot)

	b.reconcilers[chatID] = r
	return r, nil
}

func (b *Bot) saveSession(ctx context.Context, chatID int64, r *plan.Reconciler) {
	sess := Session{
		ChatID:   chatID,
		RunID:    r.RunID(),
		DayIndex: r.Day(),
		MealSlot: string(r.Slot()),
	}
	if err := b.sessionRepo.Upsert(ctx, sess); err != nil {
		log.Printf("Warning: failed to save session for chat %d: %v", chatID, err)
	}
}

func (b *Bot) handleDay(chatID int64, arg string) {
	day, err := strconv.Atoi(arg)
	if err != nil || day < 1 {
		b.reply(chatID, "Usage: /day N (N ≥ 1)")
		return
	}

	ctx := context.Background()
	r, err := b.reconcilerFor(ctx, chatID)
	if err != nil {
		b.replyError(chatID, err)
		return
	}

	r.SelectDay(day)
	b.saveSession(ctx, chatID, r)
	b.reply(chatID, fmt.Sprintf("📅 Day %d (%s), %s slot. Send /suggest for dishes.", r.Day(), phaseName(r.Phase()), r.Slot()))
}

func (b *Bot) handleMeal(chatID int64, arg string) {
	slot, ok := nutrition.ParseSlot(arg)
	if !ok {
		b.reply(chatID, "Usage: /meal breakfast|lunch|dinner|snack")
		return
	}

	ctx := context.Background()
	r, err := b.reconcilerFor(ctx, chatID)
	if err != nil {
		b.replyError(chatID, err)
		return
	}

	r.SelectSlot(slot)
	b.saveSession(ctx, chatID, r)
	t := r.SlotTargets()
	b.reply(chatID, fmt.Sprintf("🍽 %s on day %d: %d kcal budget. Send /suggest for dishes.", slot, r.Day(), t.Kcal))
}

func (b *Bot) handleSuggest(chatID int64) {
	b.runSlotOperation(chatID, "🧑‍🍳 *Thinking...*", func(ctx context.Context, r *plan.Reconciler) ([]plan.SuggestionMeal, error) {
		return r.SuggestForSlot(ctx)
	})
}

func (b *Bot) handleReroll(chatID int64, arg string) {
	index, err := strconv.Atoi(arg)
	if err != nil || index < 1 {
		b.reply(chatID, "Usage: /reroll N (dish number from the last list)")
		return
	}
	b.runSlotOperation(chatID, "🎲 *Rerolling...*", func(ctx context.Context, r *plan.Reconciler) ([]plan.SuggestionMeal, error) {
		return r.RerollItem(ctx, index-1)
	})
}

func (b *Bot) handleAdd(chatID int64) {
	b.runSlotOperation(chatID, "➕ *Adding a dish...*", func(ctx context.Context, r *plan.Reconciler) ([]plan.SuggestionMeal, error) {
		return r.AddItem(ctx)
	})
}

func (b *Bot) handleRegen(chatID int64) {
	b.runSlotOperation(chatID, "🔄 *Regenerating slot...*", func(ctx context.Context, r *plan.Reconciler) ([]plan.SuggestionMeal, error) {
		return r.RegenerateSlot(ctx)
	})
}

// runSlotOperation posts a status message, runs op against the chat's
// reconciler, and edits the status into the result.
func (b *Bot) runSlotOperation(chatID int64, statusText string, op func(context.Context, *plan.Reconciler) ([]plan.SuggestionMeal, error)) {
	statusMsg := tgbotapi.NewMessage(chatID, statusText)
	statusMsg.ParseMode = "Markdown"
	sentMsg, err := b.api.Send(statusMsg)
	if err != nil {
		log.Printf("Failed to send initial reply: %v", err)
		return
	}

	ctx := context.Background()
	r, err := b.reconcilerFor(ctx, chatID)
	if err != nil {
		b.editError(chatID, sentMsg.MessageID, err)
		return
	}

	items, err := op(ctx, r)
	b.saveSession(ctx, chatID, r)

	var finalText string
	switch {
	case errors.Is(err, plan.ErrSlotFull):
		finalText = "⚠️ This slot already has 3 dishes. /reroll one instead, or /regen the slot."
	case errors.Is(err, plan.ErrEmptySlot):
		finalText = "This slot has no dishes yet. Send /suggest first."
	case errors.Is(err, plan.ErrIndexOutOfRange):
		finalText = "That dish number is not in the current list."
	case err != nil:
		log.Printf("Error in slot operation: %v", err)
		safeErr := strings.ReplaceAll(err.Error(), "`", "'")
		finalText = fmt.Sprintf("❌ *Error:*\n```\n%v\n```", safeErr)
	default:
		finalText = formatSlotMarkdown(r.Day(), r.Phase(), r.Slot(), r.SlotTargets(), items)
	}

	edit := tgbotapi.NewEditMessageText(chatID, sentMsg.MessageID, finalText)
	edit.ParseMode = "Markdown"
	b.api.Send(edit)
}

func (b *Bot) handleTargets(chatID int64) {
	ctx := context.Background()
	p, err := b.profileRepo.Latest(ctx)
	if err != nil {
		b.replyError(chatID, err)
		return
	}
	if p == nil {
		b.reply(chatID, "No profile found: create one with the CLI first.")
		return
	}

	daily := nutrition.DailyTargets(p)
	b.reply(chatID, formatTargetsMarkdown(daily, nutrition.SplitByMealSlot(daily)))
}

func (b *Bot) handleClipRequest(chatID int64, url string) {
	statusMsg := tgbotapi.NewMessage(chatID, "✂️ *Importing recipe...*")
	statusMsg.ParseMode = "Markdown"
	sentMsg, err := b.api.Send(statusMsg)
	if err != nil {
		log.Printf("Failed to send initial reply: %v", err)
		return
	}

	ctx := context.Background()
	meal, err := b.clipper.Clip(ctx, url)
	var finalText string
	if err != nil {
		log.Printf("Error clipping recipe: %v", err)
		safeErr := strings.ReplaceAll(err.Error(), "`", "'")
		finalText = fmt.Sprintf("❌ *Error importing recipe:*\n```\n%v\n```", safeErr)
	} else {
		finalText = formatClippedMarkdown(meal)
		// Pin the imported dish into the current slot when possible.
		if r, rerr := b.reconcilerFor(ctx, chatID); rerr == nil {
			if _, perr := r.PinItem(ctx, *meal); perr != nil {
				if errors.Is(perr, plan.ErrSlotFull) {
					finalText += "\n_Slot already has 3 dishes, so it was not pinned._"
				} else {
					log.Printf("Warning: failed to pin clipped recipe: %v", perr)
				}
			} else {
				finalText += fmt.Sprintf("\n📌 _Pinned into day %d %s._", r.Day(), r.Slot())
			}
		}
	}

	edit := tgbotapi.NewEditMessageText(chatID, sentMsg.MessageID, finalText)
	edit.ParseMode = "Markdown"
	b.api.Send(edit)
}

func (b *Bot) handleMetrics(chatID int64) {
	usage, err := b.metricsStore.GetDailyUsage(7)
	if err != nil {
		b.reply(chatID, "❌ Error fetching metrics.")
		return
	}

	health := metrics.GetSysHealth("data")
	b.reply(chatID, formatUsageMarkdown(usage, health))
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	b.api.Send(msg)
}

func (b *Bot) replyError(chatID int64, err error) {
	safeErr := strings.ReplaceAll(err.Error(), "`", "'")
	b.reply(chatID, fmt.Sprintf("❌ *Error:*\n```\n%v\n```", safeErr))
}

func (b *Bot) editError(chatID int64, messageID int, err error) {
	safeErr := strings.ReplaceAll(err.Error(), "`", "'")
	edit := tgbotapi.NewEditMessageText(chatID, messageID, fmt.Sprintf("❌ *Error:*\n```\n%v\n```", safeErr))
	edit.ParseMode = "Markdown"
	b.api.Send(edit)
}

// --- Formatting ---

func splitCommand(text string) (string, string) {
	parts := strings.SplitN(text, " ", 2)
	cmd := parts[0]
	arg := ""
	if len(parts) == 2 {
		arg = strings.TrimSpace(parts[1])
	}
	return cmd, arg
}

func phaseName(p plan.Phase) string {
	switch p {
	case plan.PhaseReset:
		return "Reset"
	case plan.PhaseRepair:
		return "Repair"
	default:
		return "Maintenance"
	}
}

func formatSlotMarkdown(day int, phase plan.Phase, slot nutrition.MealSlot, targets nutrition.Targets, items []plan.SuggestionMeal) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📅 *Day %d* · Phase %d (%s) · *%s* (%d kcal)\n\n", day, phase, phaseName(phase), slot, targets.Kcal))

	if len(items) == 0 {
		sb.WriteString("_No dishes in this slot._\n")
		return sb.String()
	}

	for i, item := range items {
		sb.WriteString(fmt.Sprintf("*%d. %s*\n", i+1, item.RecipeName))
		if item.ShortDescription != "" {
			sb.WriteString(fmt.Sprintf("_%s_\n", item.ShortDescription))
		}
		if item.NutritionEstimate.Kcal > 0 {
			sb.WriteString(fmt.Sprintf("≈%.0f kcal · P %.0fg · F %.0fg · C %.0fg · fiber %.0fg\n",
				item.NutritionEstimate.Kcal,
				item.NutritionEstimate.ProteinG,
				item.NutritionEstimate.FatG,
				item.NutritionEstimate.CarbG,
				item.NutritionEstimate.FiberG))
		}
		if item.HowItSupportsGut != "" {
			sb.WriteString(fmt.Sprintf("🦠 %s\n", item.HowItSupportsGut))
		}
		for _, w := range item.Warnings {
			sb.WriteString(fmt.Sprintf("⚠️ %s\n", w.Message))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("_/reroll N · /add · /regen_")
	return sb.String()
}

func formatTargetsMarkdown(daily nutrition.Targets, slots map[nutrition.MealSlot]nutrition.Targets) string {
	var sb strings.Builder
	sb.WriteString("🎯 *Daily Targets*\n")
	sb.WriteString(fmt.Sprintf("• Energy: %d kcal\n", daily.Kcal))
	sb.WriteString(fmt.Sprintf("• Protein: %dg · Fat: %dg · Carbs: %dg\n", daily.ProteinG, daily.FatG, daily.CarbG))
	sb.WriteString(fmt.Sprintf("• Fiber: %dg · Vegetables: %dg · Fruit: %dg\n\n", daily.FiberG, daily.VegetablesG, daily.FruitG))

	sb.WriteString("*Per Meal*\n")
	for _, slot := range nutrition.SlotOrder {
		t := slots[slot]
		sb.WriteString(fmt.Sprintf("• %s: %d kcal (P %dg / F %dg / C %dg)\n", slot, t.Kcal, t.ProteinG, t.FatG, t.CarbG))
	}
	return sb.String()
}

func formatClippedMarkdown(meal *plan.SuggestionMeal) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("✅ *Recipe imported:* %s\n", meal.RecipeName))
	if meal.ShortDescription != "" {
		sb.WriteString(fmt.Sprintf("_%s_\n", meal.ShortDescription))
	}
	if len(meal.Ingredients) > 0 {
		sb.WriteString("\n*Ingredients*\n")
		for _, ing := range meal.Ingredients {
			if ing.Quantity != "" {
				sb.WriteString(fmt.Sprintf("• %s — %s\n", ing.Name, ing.Quantity))
			} else {
				sb.WriteString(fmt.Sprintf("• %s\n", ing.Name))
			}
		}
	}
	for _, w := range meal.Warnings {
		sb.WriteString(fmt.Sprintf("⚠️ %s\n", w.Message))
	}
	return sb.String()
}

func formatUsageMarkdown(usage []metrics.DailyUsage, health metrics.SysHealth) string {
	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")

	sb.WriteString("🗓 *Recent Provider Activity*\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		sb.WriteString(fmt.Sprintf("• *%s*: %d tokens (%d calls)\n", d.Date, d.TotalPrompt+d.TotalCompletion, d.TotalCalls))
	}

	sb.WriteString("\n🧠 *System Health*\n")
	sb.WriteString(fmt.Sprintf("• RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB))
	sb.WriteString(fmt.Sprintf("• Goroutines: %d\n", health.Goroutines))
	sb.WriteString(fmt.Sprintf("• Disk Data: %s\n", health.DataDirSize))

	return sb.String()
}
