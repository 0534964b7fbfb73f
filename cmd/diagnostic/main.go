// Диагностика подключения к базе данных: разрешение имени хоста,
// проверка TCP-доступности и пробное SQL-соединение
package main

import (
	"context"
	"net"
	"net/url"
	"time"

	"todoapp/internal/logger"
	"todoapp/internal/server"

	"github.com/jackc/pgx/v5"
)

func main() {
	log := logger.Init("todoapp-diagnostic")

	cfg := server.ReadConfig()

	u, err := url.Parse(cfg.DBStr)
	if err != nil {
		log.WithError(err).Fatal("не удалось разобрать строку подключения")
	}

	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "5432"
	}

	log.WithField("host", host).Info("проверка разрешения имени хоста...")
	addrs, err := net.LookupHost(host)
	if err != nil {
		log.WithError(err).Error("не удалось разрешить имя хоста")
	} else {
		log.WithField("addrs", addrs).Info("имя хоста разрешено")
	}

	log.WithField("addr", net.JoinHostPort(host, port)).Info("проверка TCP-доступности...")
	conn, err := net.DialTimeout("tcp", net.JoinHostPort(host, port), 5*time.Second)
	if err != nil {
		log.WithError(err).Error("порт недоступен")
	} else {
		_ = conn.Close()
		log.Info("порт доступен")
	}

	log.Info("пробное подключение к базе данных...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbConn, err := pgx.Connect(ctx, cfg.DBStr)
	if err != nil {
		log.WithError(err).Fatal("подключение не удалось")
	}
	defer dbConn.Close(ctx)

	var version string
	if err := dbConn.QueryRow(ctx, "SELECT version()").Scan(&version); err != nil {
		log.WithError(err).Fatal("не удалось выполнить пробный запрос")
	}

	log.WithField("version", version).Info("подключение успешно")
}
