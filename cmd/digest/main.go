package main

import (
	"context"
	"crypto/tls"
	"flag"
	"log"
	"time"

	"gopkg.in/gomail.v2"

	"geoattend/internal/attendance"
	"geoattend/internal/config"
	"geoattend/internal/report"
	"geoattend/internal/store"
)

// Digest mails the attendance summary of one work date, by default today in
// the office time zone. Run it from cron after the check-out window closes.
func main() {
	envFile := flag.String("env", ".env", "path to a dotenv file")
	date := flag.String("date", "", "work date YYYY-MM-DD (defaults to today)")
	flag.Parse()

	if err := config.LoadDotEnv(*envFile); err != nil {
		log.Fatalf("load env: %v", err)
	}
	cfg := config.Load()
	if !cfg.Mail.Enabled() {
		log.Fatalf("mail is not configured: set MAIL_HOST, MAIL_PORT and DIGEST_RECIPIENTS")
	}

	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("%v", err)
	}
	if *date == "" {
		*date = time.Now().In(loc).Format(attendance.DateLayout)
	}
	r, err := report.ParseRange(*date, "")
	if err != nil {
		log.Fatalf("%v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := store.NewPool(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer pool.Close()

	dialer := gomail.NewDialer(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.User, cfg.Mail.Password)
	dialer.TLSConfig = &tls.Config{ServerName: cfg.Mail.Host}

	digest := report.NewDigest(report.NewService(report.NewRepository(pool), loc), dialer, cfg.Mail.From, cfg.Mail.Recipients)
	if err := digest.Send(ctx, r); err != nil {
		log.Fatalf("send digest: %v", err)
	}
	log.Printf("digest for %s sent to %d recipient(s)", *date, len(cfg.Mail.Recipients))
}
