package tasks

import (
	_ "embed"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed config.yml
var periodicConfig []byte

type EmbeddedConfigProvider struct {
	Data []byte
}

type TasksConfig struct {
	Cronspec string `yaml:"cronspec"`
	TaskType string `yaml:"task_type"`
	Queue    string `yaml:"queue"`
}

type PeriodicTaskConfigContainer struct {
	Configs []*TasksConfig `yaml:"configs"`
}

func NewTasksConfigProvider() *EmbeddedConfigProvider {
	return &EmbeddedConfigProvider{Data: periodicConfig}
}

func (p *EmbeddedConfigProvider) GetConfigs() ([]*asynq.PeriodicTaskConfig, error) {
	c := &PeriodicTaskConfigContainer{}
	if err := yaml.Unmarshal(p.Data, &c); err != nil {
		zap.S().Errorf("Could not parse periodic tasks config: %v", err)
		return nil, err
	}

	configs := []*asynq.PeriodicTaskConfig{}

	for _, cfg := range c.Configs {
		opts := []asynq.Option{}
		if len(cfg.Queue) > 0 {
			opts = append(opts, asynq.Queue(cfg.Queue))
		}

		configs = append(configs, &asynq.PeriodicTaskConfig{
			Cronspec: cfg.Cronspec,
			Task:     asynq.NewTask(cfg.TaskType, nil),
			Opts:     opts,
		})
	}

	return configs, nil
}
