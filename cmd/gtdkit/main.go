package main

import (
	"flag"
	"fmt"
	"math"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/go-kit/kit/log"
	kitprometheus "github.com/go-kit/kit/metrics/prometheus"
	"github.com/gorilla/mux"
	"github.com/ichigozero/gtdkit/authsvc/pkg/authendpoint"
	"github.com/ichigozero/gtdkit/authsvc/pkg/authservice"
	"github.com/ichigozero/gtdkit/authsvc/pkg/authtransport"
	"github.com/ichigozero/gtdkit/tasksvc"
	taskgorm "github.com/ichigozero/gtdkit/tasksvc/db/gorm"
	taskinmem "github.com/ichigozero/gtdkit/tasksvc/db/inmem"
	"github.com/ichigozero/gtdkit/tasksvc/pkg/taskendpoint"
	"github.com/ichigozero/gtdkit/tasksvc/pkg/taskservice"
	"github.com/ichigozero/gtdkit/tasksvc/pkg/tasktransport"
	"github.com/ichigozero/gtdkit/usersvc"
	usergorm "github.com/ichigozero/gtdkit/usersvc/db/gorm"
	userinmem "github.com/ichigozero/gtdkit/usersvc/db/inmem"
	"github.com/ichigozero/gtdkit/usersvc/pkg/userservice"
	"github.com/oklog/oklog/pkg/group"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	libgorm "gorm.io/gorm"
)

const defaultAccessSecret = "secret"

func main() {
	fs := flag.NewFlagSet("gtdkit", flag.ExitOnError)
	defaults := userservice.DefaultHashParams()
	var (
		httpAddr = fs.String(
			"http.addr",
			getEnv("HTTP_ADDR", ":3000"),
			"HTTP listen address",
		)
		store = fs.String(
			"store",
			getEnv("STORE", "gorm"),
			"Storage backend: gorm or inmem",
		)
		databaseDriver = fs.String(
			"database.driver",
			getEnv("DATABASE_DRIVER", ""),
			"gorm dialect: postgres, mysql or sqlite (default postgres when a URL is set, else sqlite)",
		)
		databaseURL = fs.String(
			"database.url",
			getEnv("DATABASE_URL", ""),
			"Database DSN, sqlite file gorm.db when empty",
		)
		accessSecret = fs.String(
			"access.secret",
			getEnv("ACCESS_SECRET", defaultAccessSecret),
			"HMAC secret used to sign access tokens",
		)
		accessExpiry = fs.Duration(
			"access.expiry",
			getEnvAsDuration("ACCESS_EXPIRY", time.Hour),
			"Access token lifetime",
		)
		hashTime = fs.Int(
			"hash.time",
			getEnvAsInt("HASH_TIME", int(defaults.Time)),
			"argon2id iterations",
		)
		hashMemory = fs.Int(
			"hash.memory",
			getEnvAsInt("HASH_MEMORY", int(defaults.Memory)),
			"argon2id memory in KiB",
		)
		hashThreads = fs.Int(
			"hash.threads",
			getEnvAsInt("HASH_THREADS", int(defaults.Threads)),
			"argon2id parallelism",
		)
	)

	fs.Usage = usageFor(fs, os.Args[0]+" [flags]")
	fs.Parse(os.Args[1:])

	var logger log.Logger
	{
		logger = log.NewLogfmtLogger(os.Stderr)
		logger = log.With(logger, "ts", log.DefaultTimestampUTC)
		logger = log.With(logger, "caller", log.DefaultCaller)
	}

	if *accessSecret == defaultAccessSecret {
		logger.Log("warn", "using the default access secret, set ACCESS_SECRET")
	}

	var (
		userRepository usersvc.UserRepository
		taskRepository tasksvc.TaskRepository
	)
	switch *store {
	case "inmem":
		userRepository = userinmem.NewUserRepository()
		taskRepository = taskinmem.NewTaskRepository()
	case "gorm":
		db, err := openDB(*databaseDriver, *databaseURL)
		if err != nil {
			logger.Log("during", "Open", "err", err)
			os.Exit(1)
		}
		if err := db.AutoMigrate(&usersvc.User{}, &tasksvc.Task{}); err != nil {
			logger.Log("during", "AutoMigrate", "err", err)
			os.Exit(1)
		}
		userRepository = usergorm.NewUserRepository(db)
		taskRepository = taskgorm.NewTaskRepository(db)
	default:
		logger.Log("err", fmt.Sprintf("unknown store %q", *store))
		os.Exit(1)
	}
	logger.Log("store", *store)

	fieldKeys := []string{"method"}

	var users userservice.Service
	{
		params, err := hashParams(*hashTime, *hashMemory, *hashThreads)
		if err != nil {
			logger.Log("during", "HashParams", "err", err)
			os.Exit(1)
		}

		hasher, err := userservice.NewHasher(params)
		if err != nil {
			logger.Log("during", "NewHasher", "err", err)
			os.Exit(1)
		}

		users, err = userservice.New(userRepository, hasher, log.With(logger, "service", "user"))
		if err != nil {
			logger.Log("during", "NewUserService", "err", err)
			os.Exit(1)
		}
		users = userservice.InstrumentingMiddleware(
			kitprometheus.NewCounterFrom(stdprometheus.CounterOpts{
				Namespace: "api",
				Subsystem: "user_service",
				Name:      "request_count",
				Help:      "Number of requests received.",
			}, fieldKeys),
			kitprometheus.NewSummaryFrom(stdprometheus.SummaryOpts{
				Namespace: "api",
				Subsystem: "user_service",
				Name:      "request_latency_seconds",
				Help:      "Total duration of requests in seconds.",
			}, fieldKeys),
		)(users)
	}

	var auth authservice.Service
	{
		tokenizer := authservice.NewTokenizer([]byte(*accessSecret), *accessExpiry)
		auth = authservice.New(tokenizer, users, log.With(logger, "service", "auth"))
		auth = authservice.InstrumentingMiddleware(
			kitprometheus.NewCounterFrom(stdprometheus.CounterOpts{
				Namespace: "api",
				Subsystem: "auth_service",
				Name:      "request_count",
				Help:      "Number of requests received.",
			}, fieldKeys),
			kitprometheus.NewSummaryFrom(stdprometheus.SummaryOpts{
				Namespace: "api",
				Subsystem: "auth_service",
				Name:      "request_latency_seconds",
				Help:      "Total duration of requests in seconds.",
			}, fieldKeys),
		)(auth)
	}

	var tasks taskservice.Service
	{
		tasks = taskservice.New(taskRepository, log.With(logger, "service", "task"))
		tasks = taskservice.InstrumentingMiddleware(
			kitprometheus.NewCounterFrom(stdprometheus.CounterOpts{
				Namespace: "api",
				Subsystem: "task_service",
				Name:      "request_count",
				Help:      "Number of requests received.",
			}, fieldKeys),
			kitprometheus.NewSummaryFrom(stdprometheus.SummaryOpts{
				Namespace: "api",
				Subsystem: "task_service",
				Name:      "request_latency_seconds",
				Help:      "Total duration of requests in seconds.",
			}, fieldKeys),
		)(tasks)
	}

	r := mux.NewRouter()
	{
		endpoints := authendpoint.New(auth, logger)
		r.PathPrefix("/auth").Handler(authtransport.NewHTTPHandler(endpoints, logger))
	}
	{
		endpoints := taskendpoint.New(tasks, logger)
		r.PathPrefix("/tasks").Handler(tasktransport.NewHTTPHandler(endpoints, auth, logger))
	}
	r.Path("/metrics").Handler(promhttp.Handler())

	var g group.Group
	{
		httpListener, err := net.Listen("tcp", *httpAddr)
		if err != nil {
			logger.Log("transport", "HTTP", "during", "Listen", "err", err)
			os.Exit(1)
		}
		g.Add(func() error {
			logger.Log("transport", "HTTP", "addr", *httpAddr)
			return http.Serve(httpListener, r)
		}, func(error) {
			httpListener.Close()
		})
	}
	{
		// This function just sits and waits for ctrl-C.
		cancelInterrupt := make(chan struct{})
		g.Add(func() error {
			c := make(chan os.Signal, 1)
			signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
			select {
			case sig := <-c:
				return fmt.Errorf("received signal %s", sig)
			case <-cancelInterrupt:
				return nil
			}
		}, func(error) {
			close(cancelInterrupt)
		})
	}
	logger.Log("exit", g.Run())
}

// hashParams range-checks the flag values before narrowing them.
func hashParams(time, memory, threads int) (userservice.HashParams, error) {
	switch {
	case time < 1 || int64(time) > math.MaxUint32:
		return userservice.HashParams{}, fmt.Errorf("hash.time %d out of range 1..%d", time, uint32(math.MaxUint32))
	case memory < 1 || int64(memory) > math.MaxUint32:
		return userservice.HashParams{}, fmt.Errorf("hash.memory %d out of range 1..%d", memory, uint32(math.MaxUint32))
	case threads < 1 || threads > math.MaxUint8:
		return userservice.HashParams{}, fmt.Errorf("hash.threads %d out of range 1..%d", threads, math.MaxUint8)
	}

	return userservice.HashParams{
		Time:    uint32(time),
		Memory:  uint32(memory),
		Threads: uint8(threads),
	}, nil
}

func openDB(driver, dsn string) (*libgorm.DB, error) {
	if driver == "" {
		driver = "sqlite"
		if dsn != "" {
			driver = "postgres"
		}
	}

	var dialector libgorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	case "sqlite":
		if dsn == "" {
			dsn = "gorm.db"
		}
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unknown database driver %q", driver)
	}

	return libgorm.Open(dialector, &libgorm.Config{})
}

func usageFor(fs *flag.FlagSet, short string) func() {
	return func() {
		fmt.Fprintf(os.Stderr, "USAGE\n")
		fmt.Fprintf(os.Stderr, "  %s\n", short)
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "FLAGS\n")
		w := tabwriter.NewWriter(os.Stderr, 0, 2, 2, ' ', 0)
		fs.VisitAll(func(f *flag.Flag) {
			fmt.Fprintf(w, "\t-%s %s\t%s\n", f.Name, f.DefValue, f.Usage)
		})
		w.Flush()
		fmt.Fprintf(os.Stderr, "\n")
	}
}

func getEnv(key, fallback string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		value = fallback
	}
	return value
}

func getEnvAsInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}

	if v, err := strconv.Atoi(value); err == nil {
		return v
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}

	if v, err := time.ParseDuration(value); err == nil {
		return v
	}
	return fallback
}
