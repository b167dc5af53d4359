// Package telegram connects the pipeline to Telegram chats through the Bot
// API: long polling for messages, text notices via sendMessage and track
// uploads via sendAudio.
package telegram
