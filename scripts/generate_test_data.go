package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/controla/internal/app"
	"github.com/controla/internal/config"
	"github.com/controla/internal/store"
	"github.com/controla/internal/tracker"
)

const (
	demoEmail    = "demo@controla.local"
	demoPassword = "demo1234"
)

type demoHabit struct {
	name string
	// daysAgo 列出习惯完成的过去天数，从最早开始
	daysAgo []int
}

var demoHabits = []demoHabit{
	{name: "Leer 20 páginas", daysAgo: []int{6, 5, 4, 3, 2, 1, 0}},
	{name: "Meditar", daysAgo: []int{9, 8, 2, 1}},
	{name: "Correr", daysAgo: []int{12}},
	{name: "Tomar agua"},
}

var demoReminders = []struct {
	title    string
	daysAway int
}{
	{"Pagar la luz", 2},
	{"Dentista", 7},
	{"Renovar pasaporte", 30},
}

// 测试数据生成器
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("配置加载失败:", err)
	}

	application, err := app.New(context.Background(), cfg)
	if err != nil {
		log.Fatal("初始化失败:", err)
	}
	defer application.Close()

	fmt.Println("开始生成测试数据...")
	if err := seedDemoData(context.Background(), application, time.Now()); err != nil {
		log.Fatal("生成测试数据失败:", err)
	}

	fmt.Println("测试数据生成完成！")
	fmt.Printf("用户: %s (密码: %s)\n", demoEmail, demoPassword)
}

// seedDemoData 创建演示用户及若干习惯和提醒
// 演示用户已有习惯时不做任何操作
func seedDemoData(ctx context.Context, application *app.App, now time.Time) error {
	if _, err := application.Auth.SignUp(ctx, demoEmail, demoPassword); err != nil && !errors.Is(err, store.ErrEmailTaken) {
		return err
	}
	sess, err := application.Auth.SignIn(ctx, demoEmail, demoPassword)
	if err != nil {
		return err
	}

	existing, err := application.Habits.List(ctx, sess)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		fmt.Println("测试数据已存在，跳过创建")
		return nil
	}

	habits := application.Habits
	defer habits.SetClock(nil)

	for _, item := range demoHabits {
		habit, err := habits.Create(ctx, sess, item.name)
		if err != nil {
			return err
		}
		for _, ago := range item.daysAgo {
			day := now.AddDate(0, 0, -ago)
			habits.SetClock(func() time.Time { return day })
			if _, _, err := habits.Complete(ctx, sess, habit.ID); err != nil {
				return err
			}
		}
	}

	for _, item := range demoReminders {
		due := tracker.FormatDate(now.AddDate(0, 0, item.daysAway))
		if _, err := application.Reminders.Create(ctx, sess, item.title, due); err != nil {
			return err
		}
	}
	return nil
}
