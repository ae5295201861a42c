package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/btcsuite/btcutil"
	"github.com/ethereum/go-ethereum/crypto"
	ethparams "github.com/ethereum/go-ethereum/params"
	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	"github.com/xvmnet/xvmd/infrastructure/logger"
	"github.com/xvmnet/xvmd/version"
)

const (
	defaultConfigFilename = "xvmd.conf"
	defaultDataDirname    = "data"
	defaultLogLevel       = "info"
	defaultLogDirname     = "logs"
	defaultLogFilename    = "xvmd.log"
	defaultErrLogFilename = "xvmd_err.log"
)

var (
	// DefaultAppDir is the default home directory for xvmd.
	DefaultAppDir = btcutil.AppDataDir("xvmd", false)

	defaultConfigFile = filepath.Join(DefaultAppDir, defaultConfigFilename)
	defaultLogDir     = filepath.Join(DefaultAppDir, defaultLogDirname)
)

// Flags defines the configuration options for xvmd.
//
// See LoadConfig for details on the configuration load process.
type Flags struct {
	ShowVersion   bool          `short:"V" long:"version" description:"Display version information and exit"`
	ConfigFile    string        `short:"C" long:"configfile" description:"Path to configuration file"`
	AppDir        string        `short:"b" long:"appdir" description:"Directory to store data"`
	LogDir        string        `long:"logdir" description:"Directory to log output."`
	DebugLevel    string        `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems -- Use show to list available subsystems"`
	Generate      bool          `long:"generate" description:"Generate blocks on a fixed interval -- A miner public key is required if the generate option is set"`
	BlockInterval time.Duration `long:"blockinterval" description:"Interval between generated blocks (default: the target time per block of the network)"`
	BlockMaxGas   uint64        `long:"blockmaxgas" description:"Maximum gas to be used when creating a block (default: the block gas limit of the network)"`
	MinerPubKey   string        `long:"minerpubkey" description:"Hex encoded compressed secp256k1 public key receiving the priority fees of generated blocks"`
	Gov           []string      `long:"gov" description:"Genesis governance attribute as key=value -- May be specified multiple times"`
	Metrics       string        `long:"metrics" description:"Serve prometheus metrics on the given address (eg. 127.0.0.1:9090)"`
	Profile       string        `long:"profile" description:"Enable HTTP profiling on given port -- NOTE port must be between 1024 and 65536"`
	NetworkFlags
}

// Config defines the configuration options for xvmd.
//
// See LoadConfig for details on the configuration load process.
type Config struct {
	*Flags
	DataDir           string
	LogFile           string
	ErrLogFile        string
	MinerPubKey       []byte
	GenesisAttributes map[string]string
}

// cleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
func cleanAndExpandPath(path string) string {
	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		homeDir := filepath.Dir(DefaultAppDir)
		path = strings.Replace(path, "~", homeDir, 1)
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows-style %VARIABLE%,
	// but they variables can still be expanded via POSIX-style $VARIABLE.
	return filepath.Clean(os.ExpandEnv(path))
}

func defaultFlags() *Flags {
	return &Flags{
		ConfigFile: defaultConfigFile,
		AppDir:     DefaultAppDir,
		LogDir:     defaultLogDir,
		DebugLevel: defaultLogLevel,
	}
}

// LoadConfig initializes and parses the config using a config file and
// the command line options in args.
//
// The configuration proceeds as follows:
//  1. Start with a default config with sane settings
//  2. Pre-parse the command line to check for an alternative config file
//  3. Load configuration file overwriting defaults with any specified options
//  4. Parse CLI options and overwrite/add any specified options
//
// Command line options always take precedence. A missing config file is
// not an error.
func LoadConfig(args []string) (*Config, error) {
	cfgFlags := defaultFlags()

	// Pre-parse the command line options to see if an alternative config
	// file or the version flag was specified. Any errors aside from the
	// help message error can be ignored here since they will be caught by
	// the final parse below.
	preCfg := *cfgFlags
	preParser := flags.NewParser(&preCfg, flags.HelpFlag)
	_, err := preParser.ParseArgs(args)
	if err != nil {
		if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
			return nil, err
		}
	}

	if preCfg.ShowVersion {
		appName := filepath.Base(os.Args[0])
		appName = strings.TrimSuffix(appName, filepath.Ext(appName))
		fmt.Println(appName, "version", version.Version())
		os.Exit(0)
	}

	parser := flags.NewParser(cfgFlags, flags.Default)
	err = flags.NewIniParser(parser).ParseFile(preCfg.ConfigFile)
	if err != nil {
		if _, ok := err.(*os.PathError); !ok {
			return nil, errors.Wrapf(err, "error parsing config file %s", preCfg.ConfigFile)
		}
		if preCfg.ConfigFile != defaultConfigFile {
			return nil, errors.Wrapf(err, "cannot read config file %s", preCfg.ConfigFile)
		}
	}

	// Parse command line options again to ensure they take precedence.
	_, err = parser.ParseArgs(args)
	if err != nil {
		return nil, err
	}

	cfg := &Config{Flags: cfgFlags}
	err = cfg.validate()
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) validate() error {
	funcName := "loadConfig"

	err := cfg.ResolveNetwork()
	if err != nil {
		return errors.Wrap(err, funcName)
	}
	params := cfg.NetParams()

	// Namespace the data and log directories per network.
	cfg.AppDir = cleanAndExpandPath(cfg.AppDir)
	cfg.DataDir = filepath.Join(cfg.AppDir, defaultDataDirname, params.Name)
	cfg.LogDir = filepath.Join(cleanAndExpandPath(cfg.LogDir), params.Name)
	cfg.LogFile = filepath.Join(cfg.LogDir, defaultLogFilename)
	cfg.ErrLogFile = filepath.Join(cfg.LogDir, defaultErrLogFilename)

	if cfg.DebugLevel != "show" {
		_, _, err = logger.ParseLevelSpec(cfg.DebugLevel)
		if err != nil {
			return errors.Wrap(err, funcName)
		}
	}

	if cfg.Profile != "" {
		profilePort, err := strconv.Atoi(cfg.Profile)
		if err != nil || profilePort < 1024 || profilePort > 65535 {
			return errors.Errorf("%s: the profile port must be between 1024 and 65535", funcName)
		}
	}

	if cfg.BlockMaxGas == 0 {
		cfg.BlockMaxGas = params.BlockGasLimit
	}
	if cfg.BlockMaxGas < ethparams.TxGas || cfg.BlockMaxGas > params.BlockGasLimit {
		return errors.Errorf("%s: the blockmaxgas option must be in between %d and %d -- parsed [%d]",
			funcName, ethparams.TxGas, params.BlockGasLimit, cfg.BlockMaxGas)
	}

	if cfg.BlockInterval == 0 {
		cfg.BlockInterval = params.TargetTimePerBlock
	}
	if cfg.BlockInterval < 0 {
		return errors.Errorf("%s: the blockinterval option may not be negative -- parsed [%s]",
			funcName, cfg.BlockInterval)
	}

	if cfg.Flags.MinerPubKey != "" {
		pubKey, err := hex.DecodeString(strings.TrimPrefix(cfg.Flags.MinerPubKey, "0x"))
		if err != nil {
			return errors.Errorf("%s: miner public key '%s' is not hex encoded", funcName, cfg.Flags.MinerPubKey)
		}
		_, err = crypto.DecompressPubkey(pubKey)
		if err != nil {
			return errors.Errorf("%s: miner public key '%s' is not a compressed secp256k1 key: %s",
				funcName, cfg.Flags.MinerPubKey, err)
		}
		cfg.MinerPubKey = pubKey
	}
	if cfg.Generate && cfg.MinerPubKey == nil {
		return errors.Errorf("%s: the generate option requires a miner public key", funcName)
	}

	cfg.GenesisAttributes = make(map[string]string, len(cfg.Gov))
	for _, entry := range cfg.Gov {
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 || parts[0] == "" {
			return errors.Errorf("%s: the gov value '%s' is not of the form key=value", funcName, entry)
		}
		cfg.GenesisAttributes[parts[0]] = parts[1]
	}
	return nil
}
