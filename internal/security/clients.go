package security

// In-memory client registry for the merchant console API
// (replace with DB/config later).
type Client struct {
	ID      string
	Secret  string
	Perms   []string // e.g. {"payments.read","payments.write"}
	Enabled bool
}

var Clients = map[string]Client{
	"merchant-console": {ID: "merchant-console", Secret: "console-secret", Perms: []string{"payments.read", "payments.write"}, Enabled: true},
	"svc-storefront":   {ID: "svc-storefront", Secret: "storefront-secret", Perms: []string{"payments.read", "payments.write"}, Enabled: true},
	"svc-analytics":    {ID: "svc-analytics", Secret: "ana-secret", Perms: []string{"payments.read"}, Enabled: true},
}
