package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jobbase/job-board/internal/application"
	"github.com/jobbase/job-board/internal/cms"
	"github.com/jobbase/job-board/internal/company"
	"github.com/jobbase/job-board/internal/config"
	"github.com/jobbase/job-board/internal/database"
	"github.com/jobbase/job-board/internal/email"
	"github.com/jobbase/job-board/internal/employer"
	"github.com/jobbase/job-board/internal/handler"
	"github.com/jobbase/job-board/internal/job"
	"github.com/jobbase/job-board/internal/meta"
	"github.com/jobbase/job-board/internal/ownership"
	"github.com/jobbase/job-board/internal/server"
	"github.com/jobbase/job-board/internal/template"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	envFlag := &cli.StringFlag{
		Name:  "env",
		Usage: "optional .env file loaded before reading the environment",
	}
	app := &cli.Command{
		Name:  "jobbase",
		Usage: "job board backend",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "start the http server",
				Flags:  []cli.Flag{envFlag},
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "create the database schema",
				Flags:  []cli.Flag{envFlag},
				Action: migrate,
			},
		},
	}
	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func loadConfig(cmd *cli.Command) (config.Config, error) {
	if path := cmd.String("env"); path != "" {
		if err := godotenv.Load(path); err != nil {
			return config.Config{}, err
		}
	}
	return config.LoadConfig()
}

func migrate(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	conn, err := database.GetDbConn(cfg.DatabaseUser, cfg.DatabasePassword, cfg.DatabaseHost, cfg.DatabasePort, cfg.DatabaseName, cfg.DatabaseSSLMode)
	if err != nil {
		return err
	}
	defer database.CloseDbConn(conn)
	if err := database.Migrate(ctx, conn); err != nil {
		return err
	}
	log.Println("schema is up to date")
	return nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	conn, err := database.GetDbConn(cfg.DatabaseUser, cfg.DatabasePassword, cfg.DatabaseHost, cfg.DatabasePort, cfg.DatabaseName, cfg.DatabaseSSLMode)
	if err != nil {
		return err
	}
	defer database.CloseDbConn(conn)

	emailClient := email.NewClient(cfg.EmailAPIKey, cfg.NoReplyEmail, cfg.SiteName)
	tmpl := template.NewTemplate()
	svr := server.NewServer(
		cfg,
		conn,
		mux.NewRouter(),
		tmpl,
		emailClient,
		sessions.NewCookieStore(cfg.SessionKey),
	)

	jobRepo := job.NewRepository(conn)
	applicationRepo := application.NewRepository(conn)
	employerRepo := employer.NewRepository(conn)
	companyRepo := company.NewRepository(conn)
	metaRepo := meta.NewRepository(conn)
	linker := company.NewLinker(employerRepo, companyRepo)
	guard := ownership.NewGuard(jobRepo)
	auth := employer.NewAuthenticator(employerRepo, emailClient, tmpl, cfg.SiteName, cfg.OTPTTL, cfg.BcryptCost)
	posts := cms.NewClient(cfg.CMSAPIURL, cfg.CMSCategories, cfg.CMSPostsPerPage, svr)

	// employer
	svr.RegisterRoute("/api/employer/jobs", handler.EmployerJobsHandler(svr, jobRepo), []string{"GET", "PUT", "DELETE"})
	svr.RegisterRoute("/api/employer/jobs/fetch-update", handler.EmployerJobsHandler(svr, jobRepo), []string{"GET", "PUT", "DELETE"})
	svr.RegisterRoute("/api/employer/jobs/create-job", handler.CreateJobHandler(svr, jobRepo), []string{"POST"})
	svr.RegisterRoute("/api/employer/jobs/applicants", handler.ApplicantsHandler(svr, guard, applicationRepo), []string{"GET", "PUT"})
	svr.RegisterRoute("/api/employer/company", handler.EmployerCompanyHandler(svr, linker, companyRepo), []string{"GET", "PUT"})
	svr.RegisterRoute("/api/employer/profile", handler.EmployerProfileHandler(svr, employerRepo), []string{"GET", "PUT"})
	svr.RegisterRoute("/api/employer/me", handler.EmployerMeHandler(svr, employerRepo), []string{"GET"})
	svr.RegisterRoute("/api/employer/dashboard", handler.DashboardHandler(svr, jobRepo), []string{"GET"})

	// machine
	svr.RegisterRoute("/api/employer/company/sync", handler.TriggerCompanyNameSync(svr, linker, metaRepo), []string{"GET"})

	// auth
	svr.RegisterRoute("/api/auth/send-otp", handler.SendOTPHandler(svr, auth), []string{"POST"})
	svr.RegisterRoute("/api/auth/check-otp", handler.CheckOTPHandler(svr, auth), []string{"POST"})
	svr.RegisterRoute("/api/auth/employer/signup", handler.EmployerSignupHandler(svr, auth), []string{"POST"})
	svr.RegisterRoute("/api/auth/employer/login", handler.EmployerLoginHandler(svr, auth), []string{"POST"})
	svr.RegisterRoute("/api/auth/employer/logout", handler.EmployerLogoutHandler(svr), []string{"GET", "POST"})

	// public
	svr.RegisterRoute("/api/user/see-jobs", handler.SeeJobsHandler(svr, jobRepo), []string{"GET"})
	svr.RegisterRoute("/api/user/job-details", handler.JobDetailsHandler(svr, jobRepo), []string{"POST"})
	svr.RegisterRoute("/api/user/submit-application", handler.SubmitApplicationHandler(svr, jobRepo, employerRepo, applicationRepo, emailClient), []string{"POST"})
	svr.RegisterRoute("/api/cms/category-post", handler.CategoryPostsHandler(svr, posts), []string{"GET"})
	svr.RegisterRoute("/api/cms/single-post", handler.SinglePostHandler(svr, posts), []string{"GET"})
	svr.RegisterRoute("/jobs.rss", handler.ServeRSSFeed(svr, jobRepo), []string{"GET"})
	svr.RegisterRoute("/sitemap.xml", handler.SitemapHandler(svr, jobRepo), []string{"GET"})

	return svr.Run(ctx)
}
