package model

// CursorTelegram is the singleton cursor name for the Telegram pull loop.
const CursorTelegram = "telegram"
