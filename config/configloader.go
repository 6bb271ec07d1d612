package config

import (
	"fmt"
)

func LoadConfigFromFile(filePath string, appConfig *AppConfig) error {
	if err := Load(&File{ConfigFilePath: filePath}, appConfig); err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	return nil
}

func LoadConfigFromRigel(client Getter, appConfig *AppConfig) error {
	if err := Load(&Rigel{Client: client}, appConfig); err != nil {
		return fmt.Errorf("error loading config from rigel: %w", err)
	}
	return nil
}
