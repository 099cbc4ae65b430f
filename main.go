package main

import (
	"context"
	"flag"
	"log/slog"
	"time"

	"LiveDesk/internal/alert"
	"LiveDesk/internal/config"
	repository "LiveDesk/internal/database"
	"LiveDesk/internal/http-server/api"
	"LiveDesk/internal/lib/logger"
	"LiveDesk/internal/lib/sl"
	"LiveDesk/internal/service/auth"
	"LiveDesk/internal/service/chat"
	"LiveDesk/internal/service/tone"
	"LiveDesk/internal/service/user"
	"LiveDesk/internal/ws"
)

// chatRepos and userRepos bind the shared database clients to the
// store factories the services consume.
type chatRepos struct {
	db *repository.MongoDB
}

func (r chatRepos) Chats(orgID, envType string) chat.ChatRepository {
	return r.db.Chats(orgID, envType)
}

func (r chatRepos) Messages(orgID, envType string) chat.MessageRepository {
	return r.db.Messages(orgID, envType)
}

type userRepos struct {
	db  *repository.MongoDB
	rdb *repository.RedisDB
	ttl time.Duration
}

func (r userRepos) Users(orgID, envType string) user.UserRepository {
	return r.db.Users(orgID, envType)
}

func (r userRepos) TempUsers(orgID, envType string) user.TempUserRepository {
	return r.rdb.TempUsers(orgID, envType, r.ttl)
}

func main() {

	configPath := flag.String("conf", "config.yml", "path to config file")
	logPath := flag.String("log", "/var/log/", "path to log file directory")
	flag.Parse()

	conf := config.MustLoad(*configPath)
	lg := logger.SetupLogger(conf.Env, *logPath)

	if conf.Telegram.Enabled {
		tgBot, err := alert.NewTgBot(conf.Telegram.ApiKey, conf.Telegram.AdminId)
		if err != nil {
			lg.Error("telegram alerts init", sl.Err(err))
		} else {
			lg = logger.SetupTelegramHandler(lg, tgBot, slog.LevelError)
			lg.Info("telegram alerts initialized")
		}
	}

	lg.Info("starting livedesk", slog.String("config", *configPath), slog.String("env", conf.Env))
	lg.Debug("debug messages enabled")

	db, err := repository.NewMongoClient(conf, lg)
	if err != nil {
		lg.Error("mongo client", sl.Err(err))
		return
	}
	lg.With(
		slog.String("host", conf.Mongo.Host),
		slog.String("port", conf.Mongo.Port),
		slog.String("database", conf.Mongo.Database),
	).Info("mongo client initialized")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	if err := db.Environments().EnsureIndexes(ctx); err != nil {
		lg.Error("environment indexes", sl.Err(err))
	}
	cancel()

	rdb, err := repository.NewRedisClient(conf, lg)
	if err != nil {
		lg.Error("redis client", sl.Err(err))
		return
	}
	lg.With(
		slog.String("host", conf.Redis.Host),
		slog.String("port", conf.Redis.Port),
	).Info("redis client initialized")

	authService := auth.NewAuthService(lg, db.Environments(), rdb.TokenBlacklist(), auth.Tokens{
		Secret:     conf.JWT.Secret,
		AccessTTL:  time.Duration(conf.JWT.AccessTTLMinutes) * time.Minute,
		RefreshTTL: time.Duration(conf.JWT.RefreshTTLDays) * 24 * time.Hour,
	}, time.Duration(conf.Auth.CacheTTLSeconds)*time.Second)

	tempTTL := time.Duration(conf.Chat.TempUserTTLHours) * time.Hour
	userService := user.NewUserService(lg, userRepos{db: db, rdb: rdb, ttl: tempTTL})

	chatService := chat.NewChatService(lg, chatRepos{db: db}, chat.Limits{
		MaxContentLength: conf.Chat.MaxContentLength,
		PreviewLength:    conf.Chat.PreviewLength,
		DefaultChatPage:  conf.Chat.DefaultChatPage,
		DefaultMsgPage:   conf.Chat.DefaultMsgPage,
	})
	chatService.SetUserStats(userService)

	if conf.OpenAI.Enabled {
		chatService.SetTransformer(tone.NewTransformer(lg, conf.OpenAI.ApiKey, conf.OpenAI.Model))
		lg.With(
			slog.String("model", conf.OpenAI.Model),
		).Info("tone transformer initialized")
	}

	hub := ws.NewHub(lg, chatService, rdb.AgentStatuses())
	chatService.SetNotifier(hub)

	// *** blocking start with http server ***
	err = api.New(conf, lg, api.Deps{
		Auth:    authService,
		Chats:   chatService,
		Users:   userService,
		Hub:     hub,
		Limiter: rdb.RateLimiter(),
	})
	if err != nil {
		lg.Error("server start", sl.Err(err))
		return
	}
	lg.Error("service stopped")
}
