package dig_container

import (
	"fmt"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/shule/apps/api/echo"
	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/announcement"
	"github.com/trezcool/shule/core/assignment"
	"github.com/trezcool/shule/core/doubt"
	"github.com/trezcool/shule/core/note"
	"github.com/trezcool/shule/core/user"
	emailsvc "github.com/trezcool/shule/services/email"
	logsvc "github.com/trezcool/shule/services/logger"
	notifysvc "github.com/trezcool/shule/services/notify"
	"github.com/trezcool/shule/storage/database"
	sqlxrepos "github.com/trezcool/shule/storage/database/sqlx"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

type serverParams struct {
	dig.In

	Conf            *core.Config
	Logger          core.Logger
	UserSvc         user.Service
	DoubtSvc        doubt.Service
	AssignmentSvc   assignment.Service
	AnnouncementSvc announcement.Service
	NoteSvc         note.Service
	Validate        *validator.Validate
	Translator      ut.Translator
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

func newDB(conf *core.Config, loggerParam DBLoggerParam) *sqlx.DB {
	setUp := func() (*sqlx.DB, error) {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}

		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(db, "up"); err != nil {
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newValidator(translator ut.Translator) *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	doubt.InitValidators(validate, translator)
	announcement.InitValidators(validate, translator)
	return validate
}

func newServer(p serverParams) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:            p.Conf,
		Logger:          p.Logger,
		UserSvc:         p.UserSvc,
		DoubtSvc:        p.DoubtSvc,
		AssignmentSvc:   p.AssignmentSvc,
		AnnouncementSvc: p.AnnouncementSvc,
		NoteSvc:         p.NoteSvc,
		Validate:        p.Validate,
		Translator:      p.Translator,
	})
}

// New returns a new dependency injection dig.Container; the configuration is read from flags.
func New(flags *pflag.FlagSet) *dig.Container {
	c := dig.New()

	must(c.Provide(func() *pflag.FlagSet { return flags }))
	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))

	// repositories
	must(c.Provide(sqlxrepos.NewUserRepository))
	must(c.Provide(sqlxrepos.NewDoubtRepository))
	must(c.Provide(sqlxrepos.NewAssignmentRepository))
	must(c.Provide(sqlxrepos.NewAnnouncementRepository))
	must(c.Provide(sqlxrepos.NewNoteRepository))

	// services
	must(c.Provide(newEmailService))
	must(c.Provide(notifysvc.NewService))
	must(c.Provide(func(svc *notifysvc.Service) doubt.Notifier { return svc }))
	must(c.Provide(func(svc *notifysvc.Service) assignment.Notifier { return svc }))
	must(c.Provide(user.NewService))
	must(c.Provide(func(svc user.Service) user.Directory { return svc }))
	must(c.Provide(doubt.NewService))
	must(c.Provide(assignment.NewService))
	must(c.Provide(announcement.NewService))
	must(c.Provide(note.NewService))

	must(c.Provide(core.NewTranslator))
	must(c.Provide(newValidator))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
