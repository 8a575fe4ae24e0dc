package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/jobbase/job-board/internal/company"
	"github.com/jobbase/job-board/internal/config"
	"github.com/jobbase/job-board/internal/database"
	"github.com/jobbase/job-board/internal/employer"
	"github.com/jobbase/job-board/internal/meta"
)

func main() {
	log.Println("linking employers to companies")
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("unable to load config %v", err)
	}
	conn, err := database.GetDbConn(cfg.DatabaseUser, cfg.DatabasePassword, cfg.DatabaseHost, cfg.DatabasePort, cfg.DatabaseName, cfg.DatabaseSSLMode)
	if err != nil {
		log.Fatalf("unable to connect to postgres: %v", err)
	}
	defer database.CloseDbConn(conn)

	ctx := context.Background()
	employerRepo := employer.NewRepository(conn)
	companyRepo := company.NewRepository(conn)
	metaRepo := meta.NewRepository(conn)
	linker := company.NewLinker(employerRepo, companyRepo)

	if last, err := metaRepo.GetTime(ctx, meta.KeyLastCompanySync); err == nil && !last.IsZero() {
		log.Printf("last sync ran at %s\n", last.Format(time.RFC3339))
	}

	ids, err := employerRepo.ListUnlinked(ctx)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("found %d unlinked employers...\n", len(ids))
	for _, id := range ids {
		c, err := linker.EnsureLinked(ctx, id)
		if err != nil {
			log.Printf("employer %s: %v\n", id, err)
			continue
		}
		log.Printf("employer %s -> %s\n", id, c.Name)
	}

	cs, err := companyRepo.ListWithoutDescription(ctx)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("scraping %d company websites...\n", len(cs))
	client := &http.Client{Timeout: 10 * time.Second}
	for _, c := range cs {
		m, err := company.ScrapeSite(ctx, client, c.Website)
		if err != nil {
			log.Println(err)
			continue
		}
		rq := company.CompanyRqUpdate{}
		if m.Description != "" {
			rq.Description = &m.Description
		}
		if m.LogoURL != "" && c.LogoURL == "" {
			rq.LogoURL = &m.LogoURL
		}
		if rq.Description == nil && rq.LogoURL == nil {
			continue
		}
		if _, err := companyRepo.Update(ctx, c.ID, rq); err != nil {
			log.Println(err)
			continue
		}
		log.Println(c.Name)
	}

	changed, err := linker.SyncEmployerNames(ctx)
	if err != nil {
		log.Fatal(err)
	}
	for _, nc := range changed {
		log.Printf("employer %s: %q -> %q\n", nc.EmployerID, nc.OldName, nc.NewName)
	}
	if err := metaRepo.SetTime(ctx, meta.KeyLastCompanySync, time.Now()); err != nil {
		log.Fatal(err)
	}
	log.Printf("synced %d employer company names\n", len(changed))
}
