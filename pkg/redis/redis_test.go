package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"go.uber.org/zap"

	"github.com/SyberOman/testing-hospital/config"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := NewClient(&config.RedisConfig{Addr: mr.Addr()}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewClient 失败: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestBlacklistToken(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	if err := c.BlacklistToken(ctx, "jti-1", time.Minute); err != nil {
		t.Fatalf("BlacklistToken 失败: %v", err)
	}

	ok, err := c.IsBlacklisted(ctx, "jti-1")
	if err != nil || !ok {
		t.Fatalf("期望 jti-1 在黑名单中, ok=%v err=%v", ok, err)
	}

	ok, _ = c.IsBlacklisted(ctx, "jti-2")
	if ok {
		t.Error("jti-2 不应在黑名单中")
	}

	mr.FastForward(2 * time.Minute)
	ok, _ = c.IsBlacklisted(ctx, "jti-1")
	if ok {
		t.Error("TTL 到期后应自动移出黑名单")
	}
}

func TestBlacklistToken_ExpiredIsNoop(t *testing.T) {
	c, mr := newTestClient(t)

	if err := c.BlacklistToken(context.Background(), "jti-old", 0); err != nil {
		t.Fatalf("BlacklistToken 失败: %v", err)
	}
	if mr.Exists(blacklistPrefix + "jti-old") {
		t.Error("已过期 Token 不应写入黑名单")
	}
}

func TestDepartmentsChanged_PubSub(t *testing.T) {
	c, _ := newTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan string, 1)
	if err := c.SubscribeDepartmentsChanged(ctx, func(origin string) { got <- origin }); err != nil {
		t.Fatalf("订阅失败: %v", err)
	}

	if err := c.PublishDepartmentsChanged(ctx, "instance-a"); err != nil {
		t.Fatalf("发布失败: %v", err)
	}

	select {
	case origin := <-got:
		if origin != "instance-a" {
			t.Errorf("期望 origin=instance-a，实际=%s", origin)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("未收到变更通知")
	}
}

func TestNewClient_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	if _, err := NewClient(&config.RedisConfig{Addr: addr}, zap.NewNop()); err == nil {
		t.Error("Redis 不可达时应返回错误")
	}
}

func TestCheckRateLimit(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		ok, err := c.CheckRateLimit(ctx, "127.0.0.1:/login", 3, time.Minute)
		if err != nil || !ok {
			t.Fatalf("第 %d 次请求应放行, ok=%v err=%v", i, ok, err)
		}
	}
	if ok, _ := c.CheckRateLimit(ctx, "127.0.0.1:/login", 3, time.Minute); ok {
		t.Error("超过限额应拒绝")
	}

	// 窗口过期后重新计数
	mr.FastForward(time.Minute + time.Second)
	if ok, _ := c.CheckRateLimit(ctx, "127.0.0.1:/login", 3, time.Minute); !ok {
		t.Error("窗口过期后应放行")
	}
}
