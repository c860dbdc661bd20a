package tests

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// statusCheckTranscript is a short real-world style meeting used by every
// suite that talks to a live backend.
const statusCheckTranscript = `Ana: Buenos días a todos, empezamos la revisión semanal del proyecto Atlas.
Luis: El despliegue de la API quedó listo el martes, falta la documentación.
Ana: Perfecto. Entonces acordamos publicar la documentación antes del viernes.
Luis: Me encargo yo. También hay que revisar el presupuesto con finanzas.
Ana: Lo vemos en la próxima reunión, el lunes a las diez.`

type ExternalDependenciesSuite struct {
	suite.Suite
	settingsFile string
}

func (s *ExternalDependenciesSuite) SetupSuite() {
	settingsFromEnv := strings.TrimSpace(os.Getenv("SETTINGS_FILE"))
	settingsFile := settingsFromEnv
	if settingsFile == "" {
		homeDir, err := os.UserHomeDir()
		require.NoError(s.T(), err)
		settingsFile = filepath.Join(homeDir, ".env")
	}

	s.settingsFile = settingsFile

	_, err := os.Stat(settingsFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && settingsFromEnv == "" {
			// If defaulting to $HOME/.env and it doesn't exist, continue.
			return
		}
		require.NoError(s.T(), err)
		return
	}

	err = godotenv.Overload(settingsFile)
	require.NoError(s.T(), err)
}

func (s *ExternalDependenciesSuite) SettingsFile() string {
	return s.settingsFile
}

// requireEnabled skips the suite unless flag parses as true.
func (s *ExternalDependenciesSuite) requireEnabled(flag string) {
	run, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(flag)))
	if err != nil || !run {
		s.T().Skipf("%s is not true; skipping integration tests", flag)
	}
}
