package config

import "testing"

func TestResolveGuardBackend(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		want    string
		wantErr bool
	}{
		{name: "mongo defaults to redis", cfg: Config{StoreBackend: BackendMongo}, want: GuardRedis},
		{name: "memory defaults to local", cfg: Config{StoreBackend: BackendMemory}, want: GuardLocal},
		{name: "explicit redis", cfg: Config{StoreBackend: BackendMemory, GuardBackend: GuardRedis}, want: GuardRedis},
		{name: "local over mongo refused", cfg: Config{StoreBackend: BackendMongo, GuardBackend: GuardLocal}, wantErr: true},
		{name: "local over mongo on one instance", cfg: Config{StoreBackend: BackendMongo, GuardBackend: GuardLocal, SingleInstance: true}, want: GuardLocal},
		{name: "unknown backend", cfg: Config{StoreBackend: BackendMemory, GuardBackend: "zookeeper"}, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.cfg.ResolveGuardBackend()
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected an error, got backend %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}
