package handler

import (
	"github.com/go-telegram/bot"
)

// Register wires every command and callback into the bot.
func (h *Handler) Register() {
	// Commands
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypePrefix, h.handleStart)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/tasks", bot.MatchTypePrefix, h.handleTasks)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/balance", bot.MatchTypePrefix, h.handleBalance)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/referral", bot.MatchTypePrefix, h.handleReferral)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/payout", bot.MatchTypePrefix, h.handlePayout)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/requests", bot.MatchTypePrefix, h.handleRequests)

	// Admin commands
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/pending", bot.MatchTypePrefix, h.handlePending)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/approve", bot.MatchTypePrefix, h.handleApprove)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/reject", bot.MatchTypePrefix, h.handleReject)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/stats", bot.MatchTypePrefix, h.handleStats)

	// Task callbacks
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, taskCallbackPrefix, bot.MatchTypePrefix, h.handleStartTask)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, claimCallbackPrefix, bot.MatchTypePrefix, h.handleClaimTask)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, tasksCallback, bot.MatchTypeExact, h.handleTasksCallback)
}
