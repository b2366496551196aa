package model

// Context carries the per-session settings a browser is built from.
type Context struct {
	ClusterId string
	Config    *BrowserConfig
}

func NewContext(clusterId string, c *BrowserConfig) *Context {
	return &Context{
		ClusterId: clusterId,
		Config:    c,
	}
}

func (c *Context) GetClusterId() string {
	if c.ClusterId == "" && c.Config != nil {
		return c.Config.ClusterId
	}
	return c.ClusterId
}

func (c *Context) GetPageSize() int {
	if c.Config == nil || c.Config.PageSize <= 0 {
		return DefaultPageSize
	}
	return c.Config.PageSize
}

// WithClusterId returns a copy of the context bound to another cluster.
func (c *Context) WithClusterId(clusterId string) *Context {
	return &Context{
		ClusterId: clusterId,
		Config:    c.Config,
	}
}
