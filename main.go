package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prestamos-sa/prestamos/config"
	"github.com/prestamos-sa/prestamos/database"
	"github.com/prestamos-sa/prestamos/logger"
	"github.com/prestamos-sa/prestamos/web"
	"github.com/prestamos-sa/prestamos/web/entity"
	"github.com/prestamos-sa/prestamos/web/service"

	"github.com/goccy/go-json"
	"github.com/op/go-logging"
	"github.com/spf13/cobra"
)

var envFile string

func envFiles() []string {
	if envFile == "" {
		return nil
	}
	return []string{envFile}
}

func initLogger(cfg *config.Config) {
	switch cfg.GetLogLevel() {
	case config.Debug:
		logger.InitLogger(logging.DEBUG, cfg.LogFolder)
	case config.Info:
		logger.InitLogger(logging.INFO, cfg.LogFolder)
	case config.Notice:
		logger.InitLogger(logging.NOTICE, cfg.LogFolder)
	case config.Warn:
		logger.InitLogger(logging.WARNING, cfg.LogFolder)
	case config.Error:
		logger.InitLogger(logging.ERROR, cfg.LogFolder)
	default:
		log.Fatal("unknown log level:", cfg.GetLogLevel())
	}
}

func runWebServer() {
	log.Printf("%v %v", config.GetName(), config.GetVersion())

	cfg, err := config.Load(envFiles()...)
	if err != nil {
		log.Fatal(err)
	}
	initLogger(cfg)
	defer logger.CloseLogger()

	db, err := database.Open(&cfg.Database, cfg.Debug)
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		if err := database.Close(db); err != nil {
			logger.Warning("close database:", err)
		}
	}()

	server, err := web.NewServer(cfg, db)
	if err != nil {
		log.Println(err)
		return
	}
	if err = server.Start(); err != nil {
		log.Println(err)
		return
	}

	sigCh := make(chan os.Signal, 1)
	// Trap shutdown signals
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Noticef("received %v, shutting down", sig)
	if err := server.Stop(); err != nil {
		logger.Warning("stop server err:", err)
	}
}

func migrateDb() {
	dbCfg, err := config.LoadDatabase(envFiles()...)
	if err != nil {
		log.Fatal(err)
	}
	db, err := database.Open(dbCfg, false)
	if err != nil {
		log.Fatal(err)
	}
	defer database.Close(db)
	fmt.Println("migration done")
}

func createUser(req entity.UserCreate) {
	dbCfg, err := config.LoadDatabase(envFiles()...)
	if err != nil {
		log.Fatal(err)
	}
	db, err := database.Open(dbCfg, false)
	if err != nil {
		log.Fatal(err)
	}
	defer database.Close(db)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	user, err := service.NewUserService(db).CreateUser(ctx, req)
	if err != nil {
		fmt.Println("create user failed:", err)
		return
	}
	out, err := json.MarshalIndent(user, "", "  ")
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(string(out))
}

func main() {
	var rootCmd = &cobra.Command{
		Use:     config.GetName(),
		Version: config.GetVersion(),
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "load environment variables from this file instead of ./.env")

	var runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run the web server",
		Run: func(cmd *cobra.Command, args []string) {
			runWebServer()
		},
	}

	var migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Run: func(cmd *cobra.Command, args []string) {
			migrateDb()
		},
	}

	var userCmd = &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}

	var createCmd = &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		Run: func(cmd *cobra.Command, args []string) {
			username, _ := cmd.Flags().GetString("username")
			email, _ := cmd.Flags().GetString("email")
			phone, _ := cmd.Flags().GetString("phone")
			password, _ := cmd.Flags().GetString("password")
			createUser(entity.UserCreate{
				Username: username,
				Email:    email,
				Phone:    phone,
				Password: password,
			})
		},
	}

	createCmd.Flags().String("username", "", "set login username")
	createCmd.Flags().String("email", "", "set email")
	createCmd.Flags().String("phone", "", "set phone")
	createCmd.Flags().String("password", "", "set login password")
	_ = createCmd.MarkFlagRequired("username")
	_ = createCmd.MarkFlagRequired("email")
	_ = createCmd.MarkFlagRequired("password")

	userCmd.AddCommand(createCmd)

	rootCmd.AddCommand(runCmd, migrateCmd, userCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
