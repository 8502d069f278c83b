package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			-- Bot registry consulted before versions are created
			CREATE TABLE bots (
				id VARCHAR(255) PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			-- Immutable workflow version history, one row per compilation
			CREATE TABLE workflow_versions (
				bot_id VARCHAR(255) NOT NULL,
				version INTEGER NOT NULL CHECK (version >= 1),
				status VARCHAR(20) NOT NULL CHECK (status IN ('draft', 'active', 'inactive', 'archived')),
				blueprint JSONB NOT NULL,
				compiled_document JSONB NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				activated_at TIMESTAMP WITH TIME ZONE,
				archived_at TIMESTAMP WITH TIME ZONE,
				PRIMARY KEY (bot_id, version)
			);

			CREATE INDEX idx_workflow_versions_status ON workflow_versions(bot_id, status);

			-- The single-active-version invariant, enforced at the schema level
			CREATE UNIQUE INDEX idx_workflow_versions_one_active
				ON workflow_versions(bot_id) WHERE status = 'active';
		`,
	}
}
