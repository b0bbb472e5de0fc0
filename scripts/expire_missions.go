// 手动将已过期的每日任务标记为 expired
//
// 主应用在查询任务时会自动处理过期任务，此脚本用于批量清理长期未登录用户的任务。
//
// 用法: go run scripts/expire_missions.go

package main

import (
	"forex_edu_backend/internal/config"
	"forex_edu_backend/internal/repository"
	"forex_edu_backend/internal/service"
	"forex_edu_backend/pkg/database"
	"forex_edu_backend/pkg/logger"
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

func main() {
	data, err := os.ReadFile("configs/config.yaml")
	if err != nil {
		log.Fatalf("无法读取配置文件: %v", err)
	}

	var cfg config.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		log.Fatalf("解析配置文件失败: %v", err)
	}

	logger.InitLogger(&cfg)

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	missions := service.NewMissionService(db, nil,
		repository.NewUserRepository(db),
		repository.NewMissionRepository(db),
		cfg.Missions.DailyCount,
	)

	log.Println("开始清理过期任务...")
	n, err := missions.ExpireOldMissions()
	if err != nil {
		log.Fatalf("清理失败: %v", err)
	}
	log.Printf("完成！共 %d 个任务标记为过期", n)
}
